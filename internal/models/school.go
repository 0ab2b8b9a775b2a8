package models

import "fmt"

type School struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
	StudentCount int    `json:"student_count"`
}

func (s *School) UnmarshalJSON(data []byte) error {
	f, err := decodeFields(data)
	if err != nil {
		return err
	}

	s.ID = f.id("id")
	s.Name = f.str("name", "nama")
	if s.Name == "" {
		s.Name = fmt.Sprintf("School %d", s.ID)
	}
	s.Address = f.str("address", "alamat")
	s.StudentCount, _ = f.integer("student_count", "users_count", "students_count", "jumlah_siswa")
	return nil
}

type Subject struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SchoolID    ID     `json:"school_id"`
}

func (s *Subject) UnmarshalJSON(data []byte) error {
	f, err := decodeFields(data)
	if err != nil {
		return err
	}

	s.ID = f.id("id")
	s.Name = f.str("name", "nama")
	if s.Name == "" {
		s.Name = fmt.Sprintf("Subject %d", s.ID)
	}
	s.Description = f.str("description", "deskripsi")
	s.SchoolID = f.id("school_id")
	return nil
}

type SchoolRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=255"`
	Address string `json:"address,omitempty" validate:"max=500"`
}

type SubjectRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description,omitempty" validate:"max=1000"`
}
