package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestConversation_AssignAndUnassign(t *testing.T) {
	c := &Conversation{Status: StatusOpen}

	require.NoError(t, c.Assign(strPtr("emp-1")))
	assert.Equal(t, StatusAssigned, c.Status)
	assert.True(t, c.AssignedTo("emp-1"))
	assert.False(t, c.AssignedTo("emp-2"))

	require.NoError(t, c.Assign(nil))
	assert.Equal(t, StatusOpen, c.Status)
	assert.Nil(t, c.EmployeeID)

	require.NoError(t, c.Assign(strPtr("emp-2")))
	require.NoError(t, c.Assign(strPtr("")))
	assert.Equal(t, StatusOpen, c.Status)
}

func TestConversation_CloseIsTerminal(t *testing.T) {
	c := &Conversation{Status: StatusAssigned, EmployeeID: strPtr("emp-1")}
	now := time.Now()

	c.Close(now)
	assert.Equal(t, StatusClosed, c.Status)
	assert.False(t, c.IsActive())
	require.NotNil(t, c.ClosedAt)

	assert.ErrorIs(t, c.Assign(strPtr("emp-2")), ErrConversationClosed)
	assert.ErrorIs(t, c.Assign(nil), ErrConversationClosed)

	// closing twice keeps the first timestamp
	c.Close(now.Add(time.Hour))
	assert.True(t, c.ClosedAt.Equal(now))
}

func TestConversation_IsActive(t *testing.T) {
	assert.True(t, (&Conversation{Status: StatusOpen}).IsActive())
	assert.True(t, (&Conversation{Status: StatusAssigned}).IsActive())
	assert.False(t, (&Conversation{Status: StatusClosed}).IsActive())
}

func TestEmployee_Password(t *testing.T) {
	e := &Employee{}
	require.NoError(t, e.SetPassword("secret123"))
	assert.NotEqual(t, "secret123", e.PasswordHash)
	assert.True(t, e.CheckPassword("secret123"))
	assert.False(t, e.CheckPassword("wrong"))
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleAgent))
	assert.False(t, ValidRole("OWNER"))
}
