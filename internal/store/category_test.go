package store

import "testing"

func TestCategoryCRUD(t *testing.T) {
	s := setupTestDB(t)
	u := createTestUser(t, s, "alice@example.com")

	c, err := s.categories.Create(u.ID, "Health")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if c.Name != "Health" || c.UserID != u.ID {
		t.Errorf("category = %+v", c)
	}

	updated, err := s.categories.Update(c.ID, "Wellbeing")
	if err != nil {
		t.Fatalf("update category: %v", err)
	}
	if updated.Name != "Wellbeing" {
		t.Errorf("name = %q, want %q", updated.Name, "Wellbeing")
	}

	if err := s.categories.Delete(c.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	got, err := s.categories.GetByID(c.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestCategoryGetOrCreate(t *testing.T) {
	s := setupTestDB(t)
	u := createTestUser(t, s, "alice@example.com")

	first, created, err := s.categories.GetOrCreate(u.ID, "Work")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if !created {
		t.Error("expected first call to create")
	}

	second, created, err := s.categories.GetOrCreate(u.ID, "work")
	if err != nil {
		t.Fatalf("get or create again: %v", err)
	}
	if created {
		t.Error("expected second call to find existing category")
	}
	if second.ID != first.ID {
		t.Errorf("id = %s, want %s", second.ID, first.ID)
	}

	other := createTestUser(t, s, "bob@example.com")
	third, created, err := s.categories.GetOrCreate(other.ID, "Work")
	if err != nil {
		t.Fatalf("get or create for other user: %v", err)
	}
	if !created || third.ID == first.ID {
		t.Error("expected categories to be scoped per user")
	}
}

func TestCategoryListByUser(t *testing.T) {
	s := setupTestDB(t)
	u := createTestUser(t, s, "alice@example.com")

	for _, name := range []string{"work", "Home", "errands"} {
		if _, err := s.categories.Create(u.ID, name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	list, err := s.categories.ListByUser(u.ID)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	want := []string{"errands", "Home", "work"}
	if len(list) != len(want) {
		t.Fatalf("got %d categories, want %d", len(list), len(want))
	}
	for i, name := range want {
		if list[i].Name != name {
			t.Errorf("list[%d] = %q, want %q", i, list[i].Name, name)
		}
	}
}
