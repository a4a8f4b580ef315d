package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/gradebook"
	"github.com/trezcool/schoolportal/core/records"
	logsvc "github.com/trezcool/schoolportal/services/logger"
)

// Config returns a test configuration: in-memory storage, auth off unless a secret key is given.
func Config(secretKey ...string) *core.Config {
	conf := &core.Config{
		TestMode:           true,
		Env:                "TEST",
		AppName:            "School Portal",
		Build:              "test",
		ServerURL:          "http://localhost:5000",
		JWTExpirationDelta: 10 * time.Minute,
		DevAPI:             core.DevAPIConfig{Address: ":0", ShutdownTimeout: time.Second},
		Database:           core.DatabaseConfig{InMemory: true},
	}
	if len(secretKey) > 0 {
		conf.SecretKey = secretKey[0]
	}
	return conf
}

// Logger returns a silent logger with reporting disabled.
func Logger() core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), Config())
	logger.Enable(false)
	return logger
}

func CreateRecord(t *testing.T, repo records.Repository, kind string, rec records.Record) records.Record {
	created, err := repo.CreateRecord(context.Background(), kind, rec)
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	return created
}

func CreateStudent(t *testing.T, repo records.Repository, id, name, classID, sectionID, year string) gradebook.Student {
	rec := CreateRecord(t, repo, "students", records.Record{
		"id":           id,
		"name":         name,
		"classId":      classID,
		"sectionId":    sectionID,
		"academicYear": year,
	})
	return gradebook.StudentFromMap(rec)
}

func CreateSubject(t *testing.T, repo records.Repository, id, name, classID string) gradebook.Subject {
	rec := CreateRecord(t, repo, "subjects", records.Record{"id": id, "name": name, "classId": classID})
	return gradebook.SubjectFromMap(rec)
}

// SaveSheet stores a sheet bypassing the service checks.
func SaveSheet(t *testing.T, repo gradebook.Repository, sheet gradebook.Sheet) gradebook.Sheet {
	saved, err := repo.SaveSheet(context.Background(), sheet)
	if err != nil {
		t.Fatalf("SaveSheet() failed: %v", err)
	}
	return saved
}

// Marks builds the marks of one student: pairs of theory, practical per unit, in unit order.
func Marks(studentID string, values ...float64) gradebook.StudentMarks {
	sm := gradebook.StudentMarks{StudentID: studentID, Marks: make([]gradebook.UnitMark, 0, len(values)/2)}
	for i := 0; i+1 < len(values); i += 2 {
		sm.Marks = append(sm.Marks, gradebook.UnitMark{UnitIndex: i / 2, Theory: values[i], Practical: values[i+1]})
	}
	return sm
}
