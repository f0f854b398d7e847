package models

import "time"

// PatientCase is one intake record in the patients store. The store owns the
// persisted list; services mutate a record in memory and write the list back.
type PatientCase struct {
	ID                string          `json:"id"`
	PatientName       string          `json:"patient_name"`
	PolicyID          string          `json:"policy_id"`
	PolicyName        string          `json:"policy_name"`
	ProviderID        string          `json:"provider_id,omitempty"`
	ProviderName      string          `json:"provider_name,omitempty"`
	Status            Status          `json:"status"`
	ReceivedDate      time.Time       `json:"received_date"`
	SLAHours          int             `json:"sla_hours"`
	SLARemainingHours int             `json:"sla_remaining_hours"`
	FilePath          string          `json:"file_path"`
	AnalysisResult    *AnalysisResult `json:"analysis_result"`
	RFISent           bool            `json:"rfi_sent"`
	RFISentAt         *time.Time      `json:"rfi_sent_at"`
	RFIMessage        string          `json:"rfi_message,omitempty"`
}
