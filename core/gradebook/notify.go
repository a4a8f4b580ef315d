package gradebook

import (
	"net/mail"

	"github.com/trezcool/schoolportal/core"
)

const lockNoticeTemplate = "sheet_locked"

// LockNoticeData feeds the "sheet_locked" email template.
type LockNoticeData struct {
	SheetKey
	SubjectName  string
	StudentCount int
	LockedAt     string
}

// LockNotice builds the email sent once a sheet is final-saved.
func LockNotice(sheet Sheet, subjectName string, to ...mail.Address) *core.EmailMessage {
	if subjectName == "" {
		subjectName = sheet.SubjectID
	}
	data := LockNoticeData{
		SheetKey:     sheet.SheetKey,
		SubjectName:  subjectName,
		StudentCount: len(sheet.StudentMarks),
	}
	if sheet.LockedAt != nil {
		data.LockedAt = sheet.LockedAt.UTC().Format("2006-01-02 15:04 MST")
	}
	return &core.EmailMessage{
		To:           to,
		Subject:      "Marks locked: " + subjectName + " " + sheet.ClassID + " " + sheet.SectionID + " (" + sheet.Term + ")",
		TemplateName: lockNoticeTemplate,
		TemplateData: data,
	}
}
