package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/tup-vms/vms-backend/internal/database"
	"github.com/tup-vms/vms-backend/internal/metrics"
	"github.com/tup-vms/vms-backend/internal/models"
)

// ScanResult is the success payload of a scan: a short message, the log row
// the scan created or updated, and the attendance row when one was touched
type ScanResult struct {
	Message    string             `json:"message"`
	Log        *models.Log        `json:"log,omitempty"`
	Attendance *models.Attendance `json:"attendance,omitempty"`
}

// ScanService routes scans through the role and reason dependent state
// transitions of the attendance ledger and activity log. Requests are
// serialized per subject so the open-record checks cannot race; the unique
// indexes on the open rows back that up across processes.
type ScanService struct {
	users       *database.UserRepository
	credentials *database.CredentialRepository
	logs        *database.LogRepository
	attendance  *database.AttendanceRepository
	scans       *database.ScanRepository
	locks       *keyLock
	now         func() time.Time
}

// NewScanService creates a new scan service
func NewScanService(
	users *database.UserRepository,
	credentials *database.CredentialRepository,
	logs *database.LogRepository,
	attendance *database.AttendanceRepository,
	scans *database.ScanRepository,
) *ScanService {
	return &ScanService{
		users:       users,
		credentials: credentials,
		logs:        logs,
		attendance:  attendance,
		scans:       scans,
		locks:       newKeyLock(),
		now:         time.Now,
	}
}

// Scan processes a presence or attendance scan submitted by an operator.
// The scanned QR identifies the subject; the operator identity is stamped
// as scannedBy on every row the scan writes.
func (s *ScanService) Scan(req models.ScanQRRequest, operatorID uuid.UUID, scannedWith string) (*ScanResult, error) {
	result, err := s.scan(req, operatorID, scannedWith)
	metrics.RecordScan(req.Mode, outcomeOf(err))
	return result, err
}

func (s *ScanService) scan(req models.ScanQRRequest, operatorID uuid.UUID, scannedWith string) (*ScanResult, error) {
	if req.QRString == "" {
		return nil, NewValidationError("QR string is required")
	}
	mode := models.ScanMode(req.Mode)
	if !mode.Valid() {
		return nil, NewValidationError("Mode must be checkin or checkout")
	}
	if req.Reason == "" {
		return nil, NewValidationError("Reason is required")
	}

	credential, user, err := s.resolveSubject(req.QRString)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(user.ID)
	defer unlock()

	now := s.now()
	day := startOfDay(now)

	switch user.Role {
	case models.RoleStudent, models.RoleVisitor:
		// reason is required on the wire but carries no meaning here
		return s.presenceScan(user, credential, mode, operatorID, scannedWith, now, day)
	case models.RoleStaff, models.RoleTUP:
		return s.staffScan(req, user, credential, mode, operatorID, scannedWith, now, day)
	}

	return nil, NewValidationError("Unknown role on scanned user")
}

// presenceScan handles the Student/Visitor in/out cycle: one open presence
// log per subject per day, closed by the matching checkout
func (s *ScanService) presenceScan(
	user *models.User,
	credential *models.Credential,
	mode models.ScanMode,
	operatorID uuid.UUID,
	scannedWith string,
	now, day time.Time,
) (*ScanResult, error) {
	open, err := s.logs.FindOpenByKind(user.ID, day, models.KindPresence)
	if err != nil {
		return nil, NewInternalError("Failed to look up open log", err)
	}

	if mode == models.ModeCheckIn {
		if open != nil {
			return nil, NewConflictError("Already checked in")
		}

		log := &models.Log{
			SubjectID:    user.ID,
			CredentialID: credential.ID,
			Kind:         models.KindPresence,
			Date:         now,
			TimeIn:       models.NewNullTime(now),
			Status:       models.LogStatusInTUP,
			ScannedBy:    operatorID,
			ScannedWith:  models.NewNullString(scannedWith),
		}
		if err := s.scans.InsertLog(log); err != nil {
			if err == database.ErrDuplicateOpenRecord {
				return nil, NewConflictError("Already checked in")
			}
			return nil, NewInternalError("Failed to record check-in", err)
		}

		return &ScanResult{Message: "Check-in successful", Log: log}, nil
	}

	if open == nil {
		return nil, NewConflictError("Must check in first")
	}
	if err := s.scans.CloseLog(open.ID, now); err != nil {
		return nil, NewInternalError("Failed to record check-out", err)
	}
	open.TimeOut = models.NewNullTime(now)
	open.Status = models.LogStatusCheckedOut

	return &ScanResult{Message: "Check-out successful", Log: open}, nil
}

// staffScan handles the Staff/TUP reason-dependent transitions
func (s *ScanService) staffScan(
	req models.ScanQRRequest,
	user *models.User,
	credential *models.Credential,
	mode models.ScanMode,
	operatorID uuid.UUID,
	scannedWith string,
	now, day time.Time,
) (*ScanResult, error) {
	kind, ok := models.KindForReason(req.Reason)
	if !ok {
		return nil, NewValidationError("Invalid reason")
	}
	if kind == models.KindTransaction {
		return nil, NewValidationError("Transaction scans use the transaction endpoint")
	}

	switch {
	case kind == models.KindAttendance && mode == models.ModeCheckIn:
		return s.attendanceCheckIn(user, credential, operatorID, scannedWith, now)
	case kind == models.KindAttendance && mode == models.ModeCheckOut:
		return s.attendanceCheckOut(user, now, day)
	case mode == models.ModeCheckIn:
		return s.breakCheckIn(req.Reason, kind, user, credential, operatorID, scannedWith, now, day)
	default:
		return s.breakCheckOut(req, kind, user, credential, operatorID, scannedWith, now)
	}
}

// attendanceCheckIn opens a work session: one Attendance row and its
// companion log, written in a single transaction
func (s *ScanService) attendanceCheckIn(
	user *models.User,
	credential *models.Credential,
	operatorID uuid.UUID,
	scannedWith string,
	now time.Time,
) (*ScanResult, error) {
	open, err := s.attendance.FindOpenForStaff(user.ID, startOfDay(now))
	if err != nil {
		return nil, NewInternalError("Failed to look up open attendance", err)
	}
	if open != nil {
		return nil, NewConflictError("Already checked in for attendance")
	}

	att := &models.Attendance{
		StaffID:   user.ID,
		Date:      now,
		TimeIn:    now,
		ScannedBy: operatorID,
	}
	log := &models.Log{
		SubjectID:    user.ID,
		CredentialID: credential.ID,
		Kind:         models.KindAttendance,
		Date:         now,
		TimeIn:       models.NewNullTime(now),
		Status:       models.LogStatusInTUP,
		Reason:       models.NewNullString(models.ReasonAttendance),
		ScannedBy:    operatorID,
		ScannedWith:  models.NewNullString(scannedWith),
	}

	if err := s.scans.CreateAttendanceWithLog(att, log); err != nil {
		if err == database.ErrDuplicateOpenRecord {
			return nil, NewConflictError("Already checked in for attendance")
		}
		return nil, NewInternalError("Failed to record attendance check-in", err)
	}

	return &ScanResult{Message: "Check-in successful", Log: log, Attendance: att}, nil
}

// attendanceCheckOut closes the open work session and its companion log
// together, computing total hours at close time
func (s *ScanService) attendanceCheckOut(user *models.User, now, day time.Time) (*ScanResult, error) {
	openLog, err := s.logs.FindOpenByKind(user.ID, day, models.KindAttendance)
	if err != nil {
		return nil, NewInternalError("Failed to look up open log", err)
	}
	if openLog == nil {
		return nil, NewConflictError("No attendance check-in found")
	}

	openAtt, err := s.attendance.FindOpenForStaff(user.ID, day)
	if err != nil {
		return nil, NewInternalError("Failed to look up open attendance", err)
	}
	if openAtt == nil {
		return nil, NewConflictError("No open attendance record found")
	}

	totalHours := now.Sub(openAtt.TimeIn).Hours()
	if err := s.scans.CloseAttendanceWithLog(openAtt.ID, openLog.ID, now, totalHours); err != nil {
		return nil, NewInternalError("Failed to record attendance check-out", err)
	}

	openLog.TimeOut = models.NewNullTime(now)
	openLog.Status = models.LogStatusCheckedOut
	openAtt.TimeOut = models.NewNullTime(now)
	openAtt.TotalHours = models.NewNullFloat64(totalHours)

	return &ScanResult{Message: "Check-out successful", Log: openLog, Attendance: openAtt}, nil
}

// breakCheckIn records a return from a break or go-out: reopens the most
// recent log closed today if one exists, otherwise starts a fresh one
func (s *ScanService) breakCheckIn(
	reason string,
	kind models.LogKind,
	user *models.User,
	credential *models.Credential,
	operatorID uuid.UUID,
	scannedWith string,
	now, day time.Time,
) (*ScanResult, error) {
	returnable, err := s.logs.FindReturnable(user.ID, day)
	if err != nil {
		return nil, NewInternalError("Failed to look up returnable log", err)
	}

	if returnable != nil {
		if err := s.scans.ReopenLog(returnable.ID, now); err != nil {
			if err == database.ErrDuplicateOpenRecord {
				return nil, NewConflictError("Already checked in")
			}
			return nil, NewInternalError("Failed to reopen log", err)
		}
		returnable.TimeIn = models.NewNullTime(now)
		returnable.TimeOut = models.NullTime{}
		returnable.Status = models.LogStatusInTUP

		return &ScanResult{Message: "Check-in successful", Log: returnable}, nil
	}

	log := &models.Log{
		SubjectID:    user.ID,
		CredentialID: credential.ID,
		Kind:         kind,
		Date:         now,
		TimeIn:       models.NewNullTime(now),
		Status:       models.LogStatusInTUP,
		Reason:       models.NewNullString(reason),
		ScannedBy:    operatorID,
		ScannedWith:  models.NewNullString(scannedWith),
	}
	if err := s.scans.InsertLog(log); err != nil {
		if err == database.ErrDuplicateOpenRecord {
			return nil, NewConflictError("Already checked in")
		}
		return nil, NewInternalError("Failed to record check-in", err)
	}

	return &ScanResult{Message: "Check-in successful", Log: log}, nil
}

// breakCheckOut records a break or go-out departure as a brand-new closed
// log. Maintenance staff leaving campus must name an approver.
func (s *ScanService) breakCheckOut(
	req models.ScanQRRequest,
	kind models.LogKind,
	user *models.User,
	credential *models.Credential,
	operatorID uuid.UUID,
	scannedWith string,
	now time.Time,
) (*ScanResult, error) {
	if kind == models.KindGoOut && user.IsMaintenanceStaff() && req.ApprovedBy == "" {
		return nil, NewValidationError("approvedBy is required for Maintenance staff")
	}

	log := &models.Log{
		SubjectID:    user.ID,
		CredentialID: credential.ID,
		Kind:         kind,
		Date:         now,
		TimeOut:      models.NewNullTime(now),
		Status:       models.LogStatusCheckedOut,
		Reason:       models.NewNullString(req.Reason),
		ApprovedBy:   models.NewNullString(req.ApprovedBy),
		ScannedBy:    operatorID,
		ScannedWith:  models.NewNullString(scannedWith),
	}
	if err := s.scans.InsertLog(log); err != nil {
		return nil, NewInternalError("Failed to record check-out", err)
	}

	return &ScanResult{Message: "Check-out successful", Log: log}, nil
}

// Transaction processes a transaction scan initiated by the authenticated
// actor against a scanned staff member's QR. A checkin and checkout for the
// same actor/staff pair on the same day merge into one log row; an exact
// repeat of either half is rejected.
func (s *ScanService) Transaction(req models.TransactionScanRequest, actorID uuid.UUID, scannedWith string) (*ScanResult, error) {
	result, err := s.transaction(req, actorID, scannedWith)
	metrics.RecordScan(req.Mode, outcomeOf(err))
	return result, err
}

func (s *ScanService) transaction(req models.TransactionScanRequest, actorID uuid.UUID, scannedWith string) (*ScanResult, error) {
	if req.QRString == "" {
		return nil, NewValidationError("QR string is required")
	}
	mode := models.ScanMode(req.Mode)
	if !mode.Valid() {
		return nil, NewValidationError("Mode must be checkin or checkout")
	}
	if req.Type != models.ReasonTransaction {
		return nil, NewValidationError("Type must be Transaction")
	}

	credential, counterpart, err := s.resolveSubject(req.QRString)
	if err != nil {
		return nil, err
	}
	if counterpart.Role != models.RoleStaff {
		return nil, NewValidationError("Transactions must target a staff member")
	}

	unlock := s.locks.Lock(actorID)
	defer unlock()

	now := s.now()
	day := startOfDay(now)

	if mode == models.ModeCheckIn {
		return s.transactionCheckIn(credential, counterpart, actorID, scannedWith, now, day)
	}
	return s.transactionCheckOut(credential, counterpart, actorID, scannedWith, now, day)
}

func (s *ScanService) transactionCheckIn(
	credential *models.Credential,
	counterpart *models.User,
	actorID uuid.UUID,
	scannedWith string,
	now, day time.Time,
) (*ScanResult, error) {
	// a checkout-first scan leaves a row missing its time_in; merge into it
	half, err := s.logs.FindTransactionMissingTimeIn(actorID, counterpart.ID, day)
	if err != nil {
		return nil, NewInternalError("Failed to look up transaction log", err)
	}
	if half != nil {
		if err := s.scans.SetTransactionTimeIn(half.ID, now); err != nil {
			return nil, NewInternalError("Failed to record transaction check-in", err)
		}
		half.TimeIn = models.NewNullTime(now)
		return &ScanResult{Message: "Check-in successful", Log: half}, nil
	}

	open, err := s.logs.FindOpenTransaction(actorID, counterpart.ID, day)
	if err != nil {
		return nil, NewInternalError("Failed to look up transaction log", err)
	}
	if open != nil {
		return nil, NewConflictError("Transaction already checked in")
	}

	log := &models.Log{
		SubjectID:     actorID,
		CounterpartID: uuid.NullUUID{UUID: counterpart.ID, Valid: true},
		CredentialID:  credential.ID,
		Kind:          models.KindTransaction,
		Date:          now,
		TimeIn:        models.NewNullTime(now),
		Status:        models.LogStatusTransaction,
		Reason:        models.NewNullString(models.ReasonTransaction),
		ScannedBy:     actorID,
		ScannedWith:   models.NewNullString(scannedWith),
	}
	if err := s.scans.InsertLog(log); err != nil {
		if err == database.ErrDuplicateOpenRecord {
			return nil, NewConflictError("Transaction already checked in")
		}
		return nil, NewInternalError("Failed to record transaction check-in", err)
	}

	return &ScanResult{Message: "Check-in successful", Log: log}, nil
}

func (s *ScanService) transactionCheckOut(
	credential *models.Credential,
	counterpart *models.User,
	actorID uuid.UUID,
	scannedWith string,
	now, day time.Time,
) (*ScanResult, error) {
	open, err := s.logs.FindOpenTransaction(actorID, counterpart.ID, day)
	if err != nil {
		return nil, NewInternalError("Failed to look up transaction log", err)
	}
	if open != nil {
		if err := s.scans.SetTransactionTimeOut(open.ID, now); err != nil {
			return nil, NewInternalError("Failed to record transaction check-out", err)
		}
		open.TimeOut = models.NewNullTime(now)
		return &ScanResult{Message: "Check-out successful", Log: open}, nil
	}

	half, err := s.logs.FindTransactionMissingTimeIn(actorID, counterpart.ID, day)
	if err != nil {
		return nil, NewInternalError("Failed to look up transaction log", err)
	}
	if half != nil {
		return nil, NewConflictError("Transaction already checked out")
	}

	log := &models.Log{
		SubjectID:     actorID,
		CounterpartID: uuid.NullUUID{UUID: counterpart.ID, Valid: true},
		CredentialID:  credential.ID,
		Kind:          models.KindTransaction,
		Date:          now,
		TimeOut:       models.NewNullTime(now),
		Status:        models.LogStatusTransaction,
		Reason:        models.NewNullString(models.ReasonTransaction),
		ScannedBy:     actorID,
		ScannedWith:   models.NewNullString(scannedWith),
	}
	if err := s.scans.InsertLog(log); err != nil {
		return nil, NewInternalError("Failed to record transaction check-out", err)
	}

	return &ScanResult{Message: "Check-out successful", Log: log}, nil
}

// resolveSubject maps a scanned QR string to its credential and user
func (s *ScanService) resolveSubject(qrString string) (*models.Credential, *models.User, error) {
	credential, err := s.credentials.GetByQRString(qrString)
	if err != nil {
		return nil, nil, NewInternalError("Failed to resolve QR code", err)
	}
	if credential == nil {
		return nil, nil, NewNotFoundError("Invalid QR code")
	}
	if !credential.IsActive {
		return nil, nil, NewValidationError("QR code is no longer active")
	}

	user, err := s.users.GetUserByID(credential.UserID)
	if err != nil {
		return nil, nil, NewInternalError("Failed to resolve user", err)
	}
	if user == nil {
		return nil, nil, NewNotFoundError("User not found")
	}

	return credential, user, nil
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	switch KindOf(err) {
	case KindValidation:
		return metrics.OutcomeValidation
	case KindNotFound:
		return metrics.OutcomeNotFound
	case KindConflict:
		return metrics.OutcomeConflict
	case KindAuthorization:
		return metrics.OutcomeUnauthorized
	default:
		return metrics.OutcomeError
	}
}
