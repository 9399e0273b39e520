package contracts

import (
	"errors"
	"time"
)

// ErrSupplierNotFound is returned when a supplier id does not exist
var ErrSupplierNotFound = errors.New("supplier not found")

// SupplierStatus is the approval state managed by supplier administration
type SupplierStatus string

const (
	SupplierActive          SupplierStatus = "active"
	SupplierPendingApproval SupplierStatus = "pending_approval"
	SupplierRejected        SupplierStatus = "rejected"
	SupplierDeactivated     SupplierStatus = "deactivated"
)

// IsEligible reports whether a supplier in this status may be recommended
func (s SupplierStatus) IsEligible() bool {
	return s == SupplierActive
}

// Supplier represents a print supplier as read by the scoring engine
// ⭐ SSOT: 공급사 식별 정보는 이 구조체로만 전달
type Supplier struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	CompanyName string         `json:"company_name"`
	Status      SupplierStatus `json:"status"`
	Categories  []string       `json:"categories,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
