package models

import "github.com/golang-jwt/jwt/v5"

// Roles issued by the identity collaborator.
const (
	RoleUser       = "user"
	RoleOperator   = "operator"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Application permissions
const (
	PermissionWalletRead  = "wallet:read"
	PermissionWalletWrite = "wallet:write"

	PermissionRewardsRead     = "rewards:read"
	PermissionRewardsExchange = "rewards:exchange"

	// Staff permissions
	PermissionRewardsAward     = "rewards:award"
	PermissionRewardsAdmin     = "rewards:admin"
	PermissionWithdrawalSettle = "withdrawal:settle"
)

type UserClaims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"user_id"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role"`
	RegionID    string   `json:"region_id,omitempty"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role may moderate rewards.
func (c *UserClaims) IsStaff() bool {
	return IsStaffRole(c.Role)
}

func IsStaffRole(role string) bool {
	switch role {
	case RoleOperator, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	user := []string{
		PermissionWalletRead,
		PermissionWalletWrite,
		PermissionRewardsRead,
		PermissionRewardsExchange,
	}
	switch role {
	case RoleSuperAdmin, RoleAdmin:
		return append(user,
			PermissionRewardsAward,
			PermissionRewardsAdmin,
			PermissionWithdrawalSettle,
		)
	case RoleOperator:
		return append(user,
			PermissionRewardsAward,
			PermissionWithdrawalSettle,
		)
	case RoleUser:
		return user
	default:
		return []string{}
	}
}
