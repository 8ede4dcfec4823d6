package services

import (
	"crypto/subtle"
	"errors"
)

const (
	AdminLevelPrincipal   = "principal"
	AdminLevelTeacher     = "teacher"
	AdminLevelCoordinator = "coordinator"
	AdminLevelParentRep   = "parent_rep"
)

const (
	PermCreatePosts       = "create_posts"
	PermSendAlerts        = "send_alerts"
	PermSendEmergency     = "send_emergency"
	PermManageUsers       = "manage_users"
	PermModerateBroadcast = "moderate_broadcast"
	PermManageCalendar    = "manage_calendar"
	PermGradeAssignments  = "grade_assignments"
)

var ErrBadAdminCredentials = errors.New("bad admin credentials")

// AdminLevel is one tier of the shared-password admin scheme. Each level
// has a single password shared by its holders and a fixed permission list.
type AdminLevel struct {
	Level       string   `json:"level"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`

	password string
}

type AdminPasswords struct {
	Principal   string
	Teacher     string
	Coordinator string
	ParentRep   string
}

// AdminService validates shared admin passwords and answers permission
// checks. Sessions are explicit tokens issued by the handler, never ambient
// state.
type AdminService struct {
	levels []AdminLevel
}

func NewAdminService(passwords AdminPasswords) *AdminService {
	return &AdminService{
		levels: []AdminLevel{
			{
				Level:       AdminLevelPrincipal,
				Title:       "Principal",
				Description: "Full administrative access",
				Permissions: []string{
					PermCreatePosts,
					PermSendAlerts,
					PermSendEmergency,
					PermManageUsers,
					PermModerateBroadcast,
					PermManageCalendar,
					PermGradeAssignments,
				},
				password: passwords.Principal,
			},
			{
				Level:       AdminLevelTeacher,
				Title:       "Teacher",
				Description: "Classroom and student management",
				Permissions: []string{
					PermCreatePosts,
					PermSendAlerts,
					PermManageCalendar,
					PermGradeAssignments,
				},
				password: passwords.Teacher,
			},
			{
				Level:       AdminLevelCoordinator,
				Title:       "Academic Coordinator",
				Description: "Departmental oversight",
				Permissions: []string{
					PermCreatePosts,
					PermSendAlerts,
					PermManageCalendar,
				},
				password: passwords.Coordinator,
			},
			{
				Level:       AdminLevelParentRep,
				Title:       "Parent Representative",
				Description: "Limited community management",
				Permissions: []string{
					PermCreatePosts,
				},
				password: passwords.ParentRep,
			},
		},
	}
}

// Levels returns the selectable admin tiers without their passwords.
func (s *AdminService) Levels() []AdminLevel {
	levels := make([]AdminLevel, len(s.levels))
	copy(levels, s.levels)
	for i := range levels {
		levels[i].password = ""
	}
	return levels
}

// Authenticate checks the shared password for a level and returns the level
// definition on success.
func (s *AdminService) Authenticate(level, password string) (*AdminLevel, error) {
	for _, candidate := range s.levels {
		if candidate.Level != level {
			continue
		}
		if candidate.password == "" {
			return nil, ErrBadAdminCredentials
		}
		if subtle.ConstantTimeCompare([]byte(candidate.password), []byte(password)) == 1 {
			granted := candidate
			granted.password = ""
			return &granted, nil
		}
		return nil, ErrBadAdminCredentials
	}
	return nil, ErrBadAdminCredentials
}

// HasPermission reports whether an admin level carries a permission.
func (s *AdminService) HasPermission(level, permission string) bool {
	for _, candidate := range s.levels {
		if candidate.Level != level {
			continue
		}
		for _, granted := range candidate.Permissions {
			if granted == permission {
				return true
			}
		}
		return false
	}
	return false
}
