package models

// ScanMode declares the direction of a scan
type ScanMode string

const (
	ModeCheckIn  ScanMode = "checkin"
	ModeCheckOut ScanMode = "checkout"
)

// Valid reports whether m is a known scan mode
func (m ScanMode) Valid() bool {
	return m == ModeCheckIn || m == ModeCheckOut
}

// ScanQRRequest is the body of a presence/attendance scan
type ScanQRRequest struct {
	QRString   string `json:"qrString"`
	Mode       string `json:"mode"`
	Reason     string `json:"reason"`
	ApprovedBy string `json:"approvedBy"`
}

// TransactionScanRequest is the body of a transaction scan
type TransactionScanRequest struct {
	QRString string `json:"qrString"`
	Mode     string `json:"mode"`
	Type     string `json:"type"`
}
