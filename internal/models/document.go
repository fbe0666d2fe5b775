package models

import "time"

type DocumentCategory string

const (
	DocumentCategoryMedicalRecords DocumentCategory = "medical-records"
	DocumentCategoryImaging        DocumentCategory = "imaging"
	DocumentCategoryLegal          DocumentCategory = "legal"
	DocumentCategoryInsurance      DocumentCategory = "insurance"
	DocumentCategoryCorrespondence DocumentCategory = "correspondence"
	DocumentCategoryOther          DocumentCategory = "other"
)

func (c DocumentCategory) Valid() bool {
	switch c {
	case DocumentCategoryMedicalRecords, DocumentCategoryImaging, DocumentCategoryLegal,
		DocumentCategoryInsurance, DocumentCategoryCorrespondence, DocumentCategoryOther:
		return true
	}
	return false
}

type Document struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Type         string           `json:"type"`
	UploadDate   time.Time        `json:"uploadDate"`
	UploadedBy   string           `json:"uploadedBy"`
	UploadedByID string           `json:"uploadedById"`
	Size         int64            `json:"size"`
	Pages        int              `json:"pages"`
	Category     DocumentCategory `json:"category"`
	CaseID       string           `json:"caseId"`
	FilePath     string           `json:"filePath"`
	Content      string           `json:"content,omitempty"`
}
