package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nhle/teamdeck/internal/model"
	"github.com/nhle/teamdeck/internal/store"
	"github.com/nhle/teamdeck/tests/testutil"
)

func TestProjectCreateAndGet(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	p := model.Project{ID: "p1", Name: "Website", Description: "marketing site", Color: "#5B9BD5"}
	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	got, err := s.GetProjectByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProjectByID: %v", err)
	}
	if got.Name != "Website" || got.Description != "marketing site" {
		t.Errorf("project = %+v", got)
	}

	_, err = s.GetProjectByID(ctx, "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing project error = %v, want ErrNotFound", err)
	}
}

func TestGetProjectsExcludesArchived(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.CreateProject(ctx, model.Project{ID: "p1", Name: "Active"}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := s.CreateProject(ctx, model.Project{ID: "p2", Name: "Old", Archived: true}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	got, err := s.GetProjects(ctx, false)
	if err != nil {
		t.Fatalf("GetProjects: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Errorf("active projects = %v, want only p1", got)
	}

	all, err := s.GetProjects(ctx, true)
	if err != nil {
		t.Fatalf("GetProjects(includeArchived): %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all projects = %d, want 2", len(all))
	}
}

func TestAddProjectMemberIsIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.UpsertUser(ctx, model.User{ID: "u1", Email: "you@example.com", Name: "You"}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := s.CreateProject(ctx, model.Project{ID: "p1", Name: "Website"}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	m := model.ProjectMember{ProjectID: "p1", UserID: "u1"}
	if err := s.AddProjectMember(ctx, m); err != nil {
		t.Fatalf("AddProjectMember: %v", err)
	}
	if err := s.AddProjectMember(ctx, m); err != nil {
		t.Fatalf("second AddProjectMember: %v", err)
	}

	members, err := s.GetProjectMembers(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProjectMembers: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("members = %d, want 1", len(members))
	}
	if members[0].Role != model.RoleMember {
		t.Errorf("default role = %q, want %q", members[0].Role, model.RoleMember)
	}
}

func TestTasksNewestFirst(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.CreateProject(ctx, model.Project{ID: "p1", Name: "Website"}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	for _, id := range []string{"t1", "t2"} {
		task := model.Task{ID: id, ProjectID: "p1", Title: id}
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask %s: %v", id, err)
		}
	}

	got, err := s.GetProjectTasks(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProjectTasks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("tasks = %d, want 2", len(got))
	}
	if got[0].Status != model.TaskStatusOpen {
		t.Errorf("default status = %q, want %q", got[0].Status, model.TaskStatusOpen)
	}
}
