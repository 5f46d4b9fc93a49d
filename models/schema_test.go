package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestProjectMembershipActiveUniqueIndex(t *testing.T) {
	s, err := schema.Parse(&ProjectMembership{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	idx := s.LookIndex("idx_project_user_active")
	require.NotNil(t, idx)
	assert.Equal(t, "UNIQUE", idx.Class)
	assert.Equal(t, "status IN ('invited','pending_owner_approval','approved')", idx.Where)

	require.Len(t, idx.Fields, 2)
	assert.Equal(t, "project_id", idx.Fields[0].DBName)
	assert.Equal(t, "user_id", idx.Fields[1].DBName)

	// the index covers exactly the statuses that block a new invitation
	for _, st := range ActiveMembershipStatuses() {
		assert.Contains(t, idx.Where, "'"+string(st)+"'")
	}
}
