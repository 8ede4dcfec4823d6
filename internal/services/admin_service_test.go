package services

import "testing"

func testAdminService() *AdminService {
	return NewAdminService(AdminPasswords{
		Principal:   "principal-pass",
		Teacher:     "teacher-pass",
		Coordinator: "coordinator-pass",
		ParentRep:   "rep-pass",
	})
}

func TestAuthenticateAcceptsCorrectPassword(t *testing.T) {
	svc := testAdminService()

	granted, err := svc.Authenticate(AdminLevelTeacher, "teacher-pass")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if granted.Level != AdminLevelTeacher || granted.Title != "Teacher" {
		t.Fatalf("unexpected level: %+v", granted)
	}
}

func TestAuthenticateRejectsWrongPassword(t *testing.T) {
	svc := testAdminService()

	if _, err := svc.Authenticate(AdminLevelPrincipal, "teacher-pass"); err != ErrBadAdminCredentials {
		t.Fatalf("expected ErrBadAdminCredentials, got %v", err)
	}
}

func TestAuthenticateRejectsUnknownLevel(t *testing.T) {
	svc := testAdminService()

	if _, err := svc.Authenticate("superuser", "principal-pass"); err != ErrBadAdminCredentials {
		t.Fatalf("expected ErrBadAdminCredentials, got %v", err)
	}
}

func TestAuthenticateRejectsUnconfiguredLevel(t *testing.T) {
	svc := NewAdminService(AdminPasswords{Principal: "principal-pass"})

	// empty configured password must not match an empty submitted password
	if _, err := svc.Authenticate(AdminLevelTeacher, ""); err != ErrBadAdminCredentials {
		t.Fatalf("expected ErrBadAdminCredentials, got %v", err)
	}
}

func TestLevelsHidePasswords(t *testing.T) {
	svc := testAdminService()

	levels := svc.Levels()
	if len(levels) != 4 {
		t.Fatalf("expected 4 levels, got %d", len(levels))
	}
	for _, level := range levels {
		if level.password != "" {
			t.Fatalf("level %s leaked its password", level.Level)
		}
	}
}

func TestHasPermission(t *testing.T) {
	svc := testAdminService()

	cases := []struct {
		level      string
		permission string
		want       bool
	}{
		{AdminLevelPrincipal, PermSendEmergency, true},
		{AdminLevelTeacher, PermSendEmergency, false},
		{AdminLevelTeacher, PermGradeAssignments, true},
		{AdminLevelCoordinator, PermManageUsers, false},
		{AdminLevelParentRep, PermCreatePosts, true},
		{AdminLevelParentRep, PermSendAlerts, false},
		{"", PermCreatePosts, false},
	}
	for _, tc := range cases {
		if got := svc.HasPermission(tc.level, tc.permission); got != tc.want {
			t.Errorf("HasPermission(%q, %q) = %v, want %v", tc.level, tc.permission, got, tc.want)
		}
	}
}
