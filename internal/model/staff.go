package model

import "strings"

// Staff roles.  Guards work the gate terminal; wardens additionally see
// the overdue reports.  The values appear in the staff JWT "role" claim.
const (
	RoleGuard  = "GUARD"
	RoleWarden = "WARDEN"
)

// Staff field names in the record store.
const (
	FieldStaffUsername = "Username"
	FieldStaffHash     = "PasswordHash"
	FieldStaffRole     = "Role"
)

// StaffFields lists the staff columns in storage order.
var StaffFields = []string{FieldStaffUsername, FieldStaffHash, FieldStaffRole}

// Staff is one gate guard or warden account.  Passwords are stored only
// as bcrypt hashes.
type Staff struct {
	Username     string
	PasswordHash string
	Role         string
}

// StaffFromRow decodes a stored staff row.
func StaffFromRow(row map[string]string) Staff {
	return Staff{
		Username:     strings.TrimSpace(row[FieldStaffUsername]),
		PasswordHash: strings.TrimSpace(row[FieldStaffHash]),
		Role:         strings.ToUpper(strings.TrimSpace(row[FieldStaffRole])),
	}
}
