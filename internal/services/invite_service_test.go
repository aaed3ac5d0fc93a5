package services

import (
	"fmt"
	"testing"

	"github.com/invitelink/backend/internal/models"
	"github.com/stretchr/testify/require"
)

func TestAssignInviteCodeProperties(t *testing.T) {
	db := newTestDB(t)
	svc := NewInviteService(db)

	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		user := createTestUser(t, db, fmt.Sprintf("user%02d", i), fmt.Sprintf("+155512300%02d", i))
		require.NoError(t, svc.AssignInviteCode(user.Profile))

		code := *user.Profile.InviteCode
		require.Len(t, code, 6)
		for _, r := range code {
			require.Contains(t, inviteCodeAlphabet, string(r))
		}
		require.False(t, seen[code], "invite code %q issued twice", code)
		seen[code] = true
	}
}

func TestAssignInviteCodeIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewInviteService(db)
	user := createTestUser(t, db, "alice", "+15551230001")

	require.NoError(t, svc.AssignInviteCode(user.Profile))
	first := *user.Profile.InviteCode

	require.NoError(t, svc.AssignInviteCode(user.Profile))
	require.Equal(t, first, *user.Profile.InviteCode)

	var stored models.Profile
	require.NoError(t, db.First(&stored, user.Profile.ID).Error)
	require.Equal(t, first, *stored.InviteCode)
}

func TestActivateLinksProfiles(t *testing.T) {
	db := newTestDB(t)
	svc := NewInviteService(db)
	inviter := createTestUser(t, db, "alice", "+15551230001")
	invitee := createTestUser(t, db, "bob", "+15551230002")
	require.NoError(t, svc.AssignInviteCode(inviter.Profile))

	got, err := svc.Activate(invitee.ID, *inviter.Profile.InviteCode)
	require.NoError(t, err)
	require.Equal(t, inviter.Profile.ID, got.ID)

	var stored models.Profile
	require.NoError(t, db.First(&stored, invitee.Profile.ID).Error)
	require.NotNil(t, stored.ActivatedInviteID)
	require.Equal(t, inviter.Profile.ID, *stored.ActivatedInviteID)
}

func TestActivateEmptyCode(t *testing.T) {
	db := newTestDB(t)
	svc := NewInviteService(db)
	user := createTestUser(t, db, "alice", "+15551230001")

	_, err := svc.Activate(user.ID, "")
	require.ErrorIs(t, err, ErrInviteCodeRequired)
}

func TestActivateUnknownCode(t *testing.T) {
	db := newTestDB(t)
	svc := NewInviteService(db)
	user := createTestUser(t, db, "alice", "+15551230001")

	_, err := svc.Activate(user.ID, "ZZZZZZ")
	require.ErrorIs(t, err, ErrInviteNotFound)
}

func TestActivateTwiceFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewInviteService(db)
	inviterA := createTestUser(t, db, "alice", "+15551230001")
	inviterB := createTestUser(t, db, "carol", "+15551230003")
	invitee := createTestUser(t, db, "bob", "+15551230002")
	require.NoError(t, svc.AssignInviteCode(inviterA.Profile))
	require.NoError(t, svc.AssignInviteCode(inviterB.Profile))

	_, err := svc.Activate(invitee.ID, *inviterA.Profile.InviteCode)
	require.NoError(t, err)

	// Activation is permanent and singular, whatever code is supplied
	_, err = svc.Activate(invitee.ID, *inviterB.Profile.InviteCode)
	require.ErrorIs(t, err, ErrAlreadyActivated)

	_, err = svc.Activate(invitee.ID, *inviterA.Profile.InviteCode)
	require.ErrorIs(t, err, ErrAlreadyActivated)
}

func TestActivateOwnCodeFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewInviteService(db)
	user := createTestUser(t, db, "alice", "+15551230001")
	require.NoError(t, svc.AssignInviteCode(user.Profile))

	_, err := svc.Activate(user.ID, *user.Profile.InviteCode)
	require.ErrorIs(t, err, ErrSelfActivation)
}

func TestActivateMutualFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewInviteService(db)
	alice := createTestUser(t, db, "alice", "+15551230001")
	bob := createTestUser(t, db, "bob", "+15551230002")
	require.NoError(t, svc.AssignInviteCode(alice.Profile))
	require.NoError(t, svc.AssignInviteCode(bob.Profile))

	_, err := svc.Activate(alice.ID, *bob.Profile.InviteCode)
	require.NoError(t, err)

	// Bob activating Alice's code back would close a 2-cycle
	_, err = svc.Activate(bob.ID, *alice.Profile.InviteCode)
	require.ErrorIs(t, err, ErrMutualActivation)
}

func TestActivateLongerChainsAllowed(t *testing.T) {
	db := newTestDB(t)
	svc := NewInviteService(db)
	alice := createTestUser(t, db, "alice", "+15551230001")
	bob := createTestUser(t, db, "bob", "+15551230002")
	carol := createTestUser(t, db, "carol", "+15551230003")
	require.NoError(t, svc.AssignInviteCode(alice.Profile))
	require.NoError(t, svc.AssignInviteCode(bob.Profile))
	require.NoError(t, svc.AssignInviteCode(carol.Profile))

	// alice -> bob -> carol: only direct reciprocity is rejected
	_, err := svc.Activate(alice.ID, *bob.Profile.InviteCode)
	require.NoError(t, err)
	_, err = svc.Activate(bob.ID, *carol.Profile.InviteCode)
	require.NoError(t, err)
}

func TestGetReferrals(t *testing.T) {
	db := newTestDB(t)
	svc := NewInviteService(db)
	alice := createTestUser(t, db, "alice", "+15551230001")
	bob := createTestUser(t, db, "bob", "+15551230002")
	carol := createTestUser(t, db, "carol", "+15551230003")
	require.NoError(t, svc.AssignInviteCode(alice.Profile))

	_, err := svc.Activate(bob.ID, *alice.Profile.InviteCode)
	require.NoError(t, err)
	_, err = svc.Activate(carol.ID, *alice.Profile.InviteCode)
	require.NoError(t, err)

	referrals, err := svc.GetReferrals(alice.Profile.ID)
	require.NoError(t, err)
	require.Len(t, referrals, 2)

	phones := []string{referrals[0].PhoneNumber, referrals[1].PhoneNumber}
	require.ElementsMatch(t, []string{"+15551230002", "+15551230003"}, phones)

	// Referrals are direct only: bob's referrals do not include carol
	referrals, err = svc.GetReferrals(bob.Profile.ID)
	require.NoError(t, err)
	require.Empty(t, referrals)
}

func TestInviteStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewInviteService(db)
	alice := createTestUser(t, db, "alice", "+15551230001")
	bob := createTestUser(t, db, "bob", "+15551230002")
	createTestUser(t, db, "carol", "+15551230003")
	require.NoError(t, svc.AssignInviteCode(alice.Profile))
	require.NoError(t, svc.AssignInviteCode(bob.Profile))

	_, err := svc.Activate(bob.ID, *alice.Profile.InviteCode)
	require.NoError(t, err)

	stats, err := svc.InviteStats()
	require.NoError(t, err)
	require.EqualValues(t, 2, stats["issued"])
	require.EqualValues(t, 1, stats["activated"])
}
