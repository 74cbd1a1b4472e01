package coordination

import (
	"fmt"
	"sync"
	"testing"

	redis_models "Staymates/models/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGroup(t *testing.T, members ...string) (*Store, *Resolver, string) {
	t.Helper()
	st := NewStore(nil)
	r := NewResolver(st)
	spec := testSpec()
	if len(members)+1 > spec.MaxMembers {
		spec.MaxMembers = len(members) + 1
	}
	created, err := st.CreateGroup("alice", spec)
	require.NoError(t, err)
	for _, m := range members {
		_, _, err := st.AddMember(created.Code, m)
		require.NoError(t, err)
	}
	return st, r, created.Code
}

func TestClaimRoom(t *testing.T) {
	_, r, code := setupGroup(t, "bob")

	view, ev, err := r.ClaimRoom(code, "bob", 7, 2)
	require.NoError(t, err)

	m := view.Member("bob")
	assert.Equal(t, redis_models.MemberRoomSelected, m.Status)
	assert.Equal(t, 7, m.RoomID)
	assert.Equal(t, 2, m.GuestCount)
	assert.Equal(t, EventRoomClaimed, ev.Type)
	assert.Equal(t, 7, ev.RoomID)
}

func TestClaimRoomConflict(t *testing.T) {
	_, r, code := setupGroup(t, "bob", "carol")

	_, _, err := r.ClaimRoom(code, "bob", 7, 2)
	require.NoError(t, err)

	_, _, err = r.ClaimRoom(code, "carol", 7, 1)
	require.Error(t, err)
	assert.Equal(t, CodeConflict, CodeOf(err))

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "RoomAlreadyClaimed", ce.Reason)
}

func TestClaimRoomReplace(t *testing.T) {
	st, r, code := setupGroup(t, "bob", "carol")

	_, _, err := r.ClaimRoom(code, "bob", 7, 2)
	require.NoError(t, err)

	// Claiming a different room releases room 7 in the same operation
	view, _, err := r.ClaimRoom(code, "bob", 9, 3)
	require.NoError(t, err)
	assert.Equal(t, 9, view.Member("bob").RoomID)

	// Room 7 is free again
	view, _, err = r.ClaimRoom(code, "carol", 7, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, view.Member("carol").RoomID)

	_ = st
}

func TestClaimRoomNotOpen(t *testing.T) {
	st, r, code := setupGroup(t, "bob")
	_, _, err := st.TransitionStatus(code, redis_models.GroupLocked, "alice", "")
	require.NoError(t, err)

	_, _, err = r.ClaimRoom(code, "bob", 7, 2)
	assert.Equal(t, CodeState, CodeOf(err))
}

func TestClaimRoomNonMember(t *testing.T) {
	_, r, code := setupGroup(t)
	_, _, err := r.ClaimRoom(code, "mallory", 7, 2)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestReleaseClaim(t *testing.T) {
	_, r, code := setupGroup(t, "bob")

	_, _, err := r.ClaimRoom(code, "bob", 7, 2)
	require.NoError(t, err)

	view, ev, err := r.ReleaseClaim(code, "bob")
	require.NoError(t, err)
	assert.Equal(t, redis_models.MemberPending, view.Member("bob").Status)
	assert.Zero(t, view.Member("bob").RoomID)
	assert.Equal(t, EventClaimReleased, ev.Type)
	assert.Equal(t, 7, ev.RoomID)

	// Releasing with no claim held is a no-op
	_, ev, err = r.ReleaseClaim(code, "bob")
	require.NoError(t, err)
	assert.Nil(t, ev)
}

// Two participants racing for the same room: exactly one wins, the other
// gets an explicit conflict, and the final state holds a single claim.
func TestConcurrentClaimSameRoom(t *testing.T) {
	for i := 0; i < 50; i++ {
		st, r, code := setupGroup(t, "bob", "carol")

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for j, user := range []string{"bob", "carol"} {
			wg.Add(1)
			go func(j int, user string) {
				defer wg.Done()
				_, _, errs[j] = r.ClaimRoom(code, user, 7, 2)
			}(j, user)
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
			} else {
				assert.Equal(t, CodeConflict, CodeOf(err))
			}
		}
		require.Equal(t, 1, winners, "exactly one claim must win")

		view, err := st.GetGroup(code)
		require.NoError(t, err)
		holders := 0
		for _, m := range view.Members {
			if m.RoomID == 7 {
				holders++
			}
		}
		assert.Equal(t, 1, holders)
	}
}

// Many members claiming distinct rooms concurrently: no claims are lost
// and every event gets a unique sequence number.
func TestConcurrentClaimsDistinctRooms(t *testing.T) {
	users := make([]string, 8)
	for i := range users {
		users[i] = fmt.Sprintf("user%d", i)
	}
	st, r, code := setupGroup(t, users...)

	var wg sync.WaitGroup
	seqs := make([]uint64, len(users))
	claimErrs := make([]error, len(users))
	for i, user := range users {
		wg.Add(1)
		go func(i int, user string) {
			defer wg.Done()
			_, ev, err := r.ClaimRoom(code, user, 100+i, 1)
			if err != nil {
				claimErrs[i] = err
				return
			}
			seqs[i] = ev.Seq
		}(i, user)
	}
	wg.Wait()
	for i, err := range claimErrs {
		require.NoError(t, err, "claim by %s", users[i])
	}

	seen := make(map[uint64]bool)
	for _, seq := range seqs {
		assert.False(t, seen[seq], "sequence %d assigned twice", seq)
		seen[seq] = true
	}

	view, err := st.GetGroup(code)
	require.NoError(t, err)
	for i, user := range users {
		assert.Equal(t, 100+i, view.Member(user).RoomID)
	}
}
