package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Admin 表示后台管理员账号。
type Admin struct {
	gorm.Model
	Username           string `gorm:"uniqueIndex;size:64"`
	PasswordHash       string `gorm:"size:255"`
	Email              string `gorm:"size:255"`
	MustChangePassword bool   `gorm:"default:false"`
}

// Category 表示职位分类及其有序的子分类列表。
type Category struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	Name          string                      `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Subcategories datatypes.JSONSlice[string] `json:"subcategories"`
	CreatedAt     time.Time                   `json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
}

// Job 表示一条招聘信息。
// Category/Subcategory 是分类名称的反规范化副本，由分类级联维护；
// CategoryID 在提交时按名称解析，分类不存在时为空。
type Job struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Description   string     `gorm:"type:text;not null" json:"description"`
	Company       string     `gorm:"size:255;not null" json:"company"`
	CategoryID    *uint      `gorm:"index" json:"categoryId,omitempty"`
	Category      string     `gorm:"size:128;index" json:"category,omitempty"`
	Subcategory   string     `gorm:"size:128" json:"subcategory,omitempty"`
	District      string     `gorm:"size:128;index" json:"district,omitempty"`
	AadharNumber  string     `gorm:"size:32;index;not null" json:"aadharNumber"`
	AadharFileURL string     `gorm:"size:512;not null" json:"aadharFileUrl"`
	TransactionID string     `gorm:"size:128" json:"transactionId,omitempty"`
	ContactEmail  string     `gorm:"size:255" json:"contactEmail,omitempty"`
	Status        string     `gorm:"size:16;index;not null" json:"status"`
	PostedBy      string     `gorm:"size:255;not null" json:"postedBy"`
	ApprovedBy    string     `gorm:"size:255" json:"approvedBy,omitempty"`
	CreatedAt     time.Time  `gorm:"index" json:"createdAt"`
	ApprovedAt    *time.Time `json:"approvedAt,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// JobSeeker 表示求职者登记信息。
// Status 允许为空以兼容早期未写入状态的记录，空值按 pending 处理。
type JobSeeker struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	Name                 string     `gorm:"size:255;not null" json:"name"`
	DateOfBirth          time.Time  `json:"dateOfBirth"`
	Gender               string     `gorm:"size:32" json:"gender"`
	ContactNumber        string     `gorm:"size:32;index;not null" json:"contactNumber"`
	Email                string     `gorm:"size:255" json:"email"`
	Qualification        string     `gorm:"size:255" json:"qualification"`
	PreferredJobType     string     `gorm:"size:32" json:"preferredJobType"`
	PreferredCategory    string     `gorm:"size:128" json:"preferredCategory"`
	PreferredSubcategory string     `gorm:"size:128" json:"preferredSubcategory"`
	Location             string     `gorm:"size:255" json:"location"`
	District             string     `gorm:"size:128;index" json:"district"`
	JobTitle             string     `gorm:"size:255" json:"jobTitle"`
	Experience           *float64   `json:"experience,omitempty"`
	Skills               string     `gorm:"type:text" json:"skills,omitempty"`
	ResumeURL            string     `gorm:"size:512" json:"resumeUrl,omitempty"`
	ExpectedSalary       string     `gorm:"size:64" json:"expectedSalary,omitempty"`
	Availability         *time.Time `json:"availability,omitempty"`
	LanguageProficiency  string     `gorm:"size:255" json:"languageProficiency,omitempty"`
	TransactionID        string     `gorm:"size:128" json:"transactionId,omitempty"`
	Status               string     `gorm:"size:16;index" json:"status"`
	ApprovedBy           string     `gorm:"size:255" json:"approvedBy,omitempty"`
	ApprovedAt           *time.Time `json:"approvedAt,omitempty"`
	CreatedAt            time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// ContactMessage 表示访客留言，仅追加写入。
type ContactMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Subject   string    `gorm:"size:255" json:"subject,omitempty"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
