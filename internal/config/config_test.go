package config

import "testing"

func TestLoadConfigAdminPasswordDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.AdminPrincipalPassword != "ST2024PRIN" {
		t.Fatalf("unexpected principal password: %s", cfg.AdminPrincipalPassword)
	}
	if cfg.AdminTeacherPassword != "ST2024TEACH" {
		t.Fatalf("unexpected teacher password: %s", cfg.AdminTeacherPassword)
	}
	if cfg.AdminCoordinatorPassword != "ST2024COORD" {
		t.Fatalf("unexpected coordinator password: %s", cfg.AdminCoordinatorPassword)
	}
	if cfg.AdminParentRepPassword != "ST2024PARENT" {
		t.Fatalf("unexpected parent rep password: %s", cfg.AdminParentRepPassword)
	}
}

func TestLoadConfigAdminPasswordOverride(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADMIN_PRINCIPAL_PASSWORD", "rotated")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.AdminPrincipalPassword != "rotated" {
		t.Fatalf("expected env override, got %s", cfg.AdminPrincipalPassword)
	}
}
