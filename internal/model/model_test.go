package model_test

import (
	"encoding/json"
	"testing"

	"collabolab/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDList_AddRemove(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	list := model.NewIDList(a, a)
	assert.Len(t, list, 1)

	list, added := model.AddID(list, b)
	assert.True(t, added)
	list, added = model.AddID(list, b)
	assert.False(t, added)
	assert.Equal(t, model.IDList{a, b}, list)

	list, removed := model.RemoveID(list, a)
	assert.True(t, removed)
	_, removed = model.RemoveID(list, a)
	assert.False(t, removed)
	assert.Equal(t, model.IDList{b}, list)
}

func TestIDList_RemoveDropsDuplicates(t *testing.T) {
	a := uuid.New()
	list, removed := model.RemoveID(model.IDList{a, a}, a)
	assert.True(t, removed)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestIDList_EmptyMarshalsAsArray(t *testing.T) {
	raw, err := json.Marshal(model.NewIDList())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestUserAndProjectMembershipHelpers(t *testing.T) {
	u := &model.User{ID: uuid.New(), Projects: model.NewIDList()}
	p := &model.Project{ID: uuid.New(), Members: model.NewIDList()}

	assert.True(t, u.AddProject(p.ID))
	assert.True(t, p.AddMember(u.ID))
	assert.True(t, u.HasProject(p.ID))
	assert.True(t, p.HasMember(u.ID))
	assert.Equal(t, p.ID.String(), p.Topic())

	assert.True(t, u.RemoveProject(p.ID))
	assert.True(t, p.RemoveMember(u.ID))
	assert.False(t, u.HasProject(p.ID))
	assert.False(t, p.HasMember(u.ID))
}

func TestOwnerPermission_GrantsEverything(t *testing.T) {
	p := model.OwnerPermission(uuid.New(), uuid.New())
	for _, c := range model.Capabilities {
		assert.True(t, p.Has(c), c)
	}

	d := model.DefaultPermission(uuid.New(), uuid.New())
	for _, c := range model.Capabilities {
		assert.False(t, d.Has(c), c)
	}
}

func TestPermission_WireKeys(t *testing.T) {
	p := model.DefaultPermission(uuid.New(), uuid.New())
	p.Set(model.CapReviewTask, true)

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var fields map[string]bool
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Len(t, fields, 7)
	assert.True(t, fields["review task"])
	assert.False(t, fields["kick member"])
}

func TestCapability_Column(t *testing.T) {
	assert.Equal(t, "manage_permissions", model.CapManagePermissions.Column())
	assert.Equal(t, "", model.Capability("drop table").Column())
	assert.False(t, model.Capability("drop table").Valid())
}

func TestAssigneeSentinel(t *testing.T) {
	assert.Equal(t, model.UnassignedUserID, model.FormatAssignee(nil))

	id, err := model.ParseAssignee(model.UnassignedUserID)
	assert.NoError(t, err)
	assert.Nil(t, id)

	id, err = model.ParseAssignee("")
	assert.NoError(t, err)
	assert.Nil(t, id)

	want := uuid.New()
	id, err = model.ParseAssignee(want.String())
	require.NoError(t, err)
	assert.Equal(t, want, *id)
	assert.Equal(t, want.String(), model.FormatAssignee(id))

	_, err = model.ParseAssignee("not-a-user")
	assert.ErrorIs(t, err, model.ErrInvalidAssignee)
}

func TestTask_PathAndAssignment(t *testing.T) {
	owner := uuid.New()
	task := &model.Task{ID: uuid.New(), ProjectID: uuid.New(), AssignedTo: &owner}
	assert.Equal(t, "projects/"+task.ProjectID.String()+"/tasks/"+task.ID.String(), task.Path())
	assert.True(t, task.IsAssignedTo(owner))
	assert.False(t, task.IsAssignedTo(uuid.New()))
	assert.True(t, model.ValidTaskStatus(model.StatusComplete))
	assert.False(t, model.ValidTaskStatus("Done"))
}
