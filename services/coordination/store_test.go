package coordination

import (
	"testing"
	"time"

	redis_models "Staymates/models/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpec() GroupSpec {
	return GroupSpec{
		HotelID:    42,
		CheckIn:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		MaxMembers: 4,
	}
}

func TestCreateGroup(t *testing.T) {
	st := NewStore(nil)

	view, err := st.CreateGroup("alice", testSpec())
	require.NoError(t, err)

	assert.Len(t, view.Code, 6)
	assert.Equal(t, "alice", view.Organizer)
	assert.Equal(t, redis_models.GroupOpen, view.Status)
	require.Len(t, view.Members, 1)
	assert.True(t, view.Members[0].IsOrganizer)
	assert.Equal(t, redis_models.MemberPending, view.Members[0].Status)
	assert.Equal(t, uint64(0), view.Seq)
}

func TestCreateGroupValidation(t *testing.T) {
	st := NewStore(nil)

	t.Run("capacity below two", func(t *testing.T) {
		spec := testSpec()
		spec.MaxMembers = 1
		_, err := st.CreateGroup("alice", spec)
		assert.Equal(t, CodeValidation, CodeOf(err))
	})

	t.Run("check-in after check-out", func(t *testing.T) {
		spec := testSpec()
		spec.CheckIn, spec.CheckOut = spec.CheckOut, spec.CheckIn
		_, err := st.CreateGroup("alice", spec)
		assert.Equal(t, CodeValidation, CodeOf(err))
	})

	t.Run("deadline after check-in", func(t *testing.T) {
		spec := testSpec()
		d := spec.CheckIn.Add(24 * time.Hour)
		spec.JoinDeadline = &d
		_, err := st.CreateGroup("alice", spec)
		assert.Equal(t, CodeValidation, CodeOf(err))
	})
}

func TestGetGroupNotFound(t *testing.T) {
	st := NewStore(nil)
	_, err := st.GetGroup("NOPE42")
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestJoinRoundTrip(t *testing.T) {
	st := NewStore(nil)
	created, err := st.CreateGroup("alice", testSpec())
	require.NoError(t, err)

	view, ev, err := st.AddMember(created.Code, "bob")
	require.NoError(t, err)

	require.Len(t, view.Members, 2)
	require.NotNil(t, view.Member("bob"))
	assert.Equal(t, EventMemberJoined, ev.Type)
	assert.Equal(t, "bob", ev.Member)
	assert.Equal(t, uint64(1), ev.Seq)

	// The member appears exactly once
	count := 0
	for _, m := range view.Members {
		if m.Username == "bob" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestAddMemberErrors(t *testing.T) {
	st := NewStore(nil)

	t.Run("already a member", func(t *testing.T) {
		created, _ := st.CreateGroup("alice", testSpec())
		_, _, err := st.AddMember(created.Code, "bob")
		require.NoError(t, err)
		_, _, err = st.AddMember(created.Code, "bob")
		assert.Equal(t, CodeConflict, CodeOf(err))
	})

	t.Run("capacity exceeded", func(t *testing.T) {
		spec := testSpec()
		spec.MaxMembers = 2
		created, _ := st.CreateGroup("alice", spec)
		_, _, err := st.AddMember(created.Code, "bob")
		require.NoError(t, err)
		_, _, err = st.AddMember(created.Code, "carol")
		assert.Equal(t, CodeCapacity, CodeOf(err))
	})

	t.Run("deadline passed", func(t *testing.T) {
		spec := testSpec()
		d := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		spec.JoinDeadline = &d
		created, _ := st.CreateGroup("alice", spec)
		st.now = func() time.Time { return d.Add(time.Hour) }
		defer func() { st.now = time.Now }()
		_, _, err := st.AddMember(created.Code, "bob")
		assert.Equal(t, CodeCapacity, CodeOf(err))
	})

	t.Run("not open", func(t *testing.T) {
		created, _ := st.CreateGroup("alice", testSpec())
		_, _, err := st.TransitionStatus(created.Code, redis_models.GroupLocked, "alice", "")
		require.NoError(t, err)
		_, _, err = st.AddMember(created.Code, "bob")
		assert.Equal(t, CodeState, CodeOf(err))
	})
}

func TestRemoveMember(t *testing.T) {
	st := NewStore(nil)
	created, _ := st.CreateGroup("alice", testSpec())
	st.AddMember(created.Code, "bob")

	view, ev, err := st.RemoveMember(created.Code, "bob")
	require.NoError(t, err)
	assert.Nil(t, view.Member("bob"))
	assert.Equal(t, EventMemberLeft, ev.Type)

	// Removing again is an idempotent no-op: same state, no event
	again, ev2, err := st.RemoveMember(created.Code, "bob")
	require.NoError(t, err)
	assert.Nil(t, ev2)
	assert.Equal(t, view.Members, again.Members)
	assert.Equal(t, view.Seq, again.Seq)
}

func TestRemoveOrganizerFails(t *testing.T) {
	st := NewStore(nil)
	created, _ := st.CreateGroup("alice", testSpec())
	_, _, err := st.RemoveMember(created.Code, "alice")
	assert.Equal(t, CodeAuthorization, CodeOf(err))
}

func TestTransitionTable(t *testing.T) {
	valid := [][2]redis_models.GroupStatus{
		{redis_models.GroupOpen, redis_models.GroupLocked},
		{redis_models.GroupLocked, redis_models.GroupConfirmed},
		{redis_models.GroupOpen, redis_models.GroupCancelled},
		{redis_models.GroupLocked, redis_models.GroupCancelled},
	}
	all := []redis_models.GroupStatus{
		redis_models.GroupOpen, redis_models.GroupLocked,
		redis_models.GroupConfirmed, redis_models.GroupCancelled,
	}

	for _, from := range all {
		for _, to := range all {
			allowed := false
			for _, v := range valid {
				if v[0] == from && v[1] == to {
					allowed = true
				}
			}

			st := NewStore(nil)
			created, _ := st.CreateGroup("alice", testSpec())
			// Drive the session into the starting state
			switch from {
			case redis_models.GroupLocked:
				st.TransitionStatus(created.Code, redis_models.GroupLocked, "alice", "")
			case redis_models.GroupConfirmed:
				st.TransitionStatus(created.Code, redis_models.GroupLocked, "alice", "")
				st.TransitionStatus(created.Code, redis_models.GroupConfirmed, "alice", "")
			case redis_models.GroupCancelled:
				st.TransitionStatus(created.Code, redis_models.GroupCancelled, "alice", "")
			}

			_, _, err := st.TransitionStatus(created.Code, to, "alice", "")
			if allowed {
				assert.NoError(t, err, "%s -> %s should be allowed", from, to)
			} else {
				assert.Equal(t, CodeState, CodeOf(err), "%s -> %s should be a state error", from, to)
			}
		}
	}
}

func TestTransitionOrganizerOnly(t *testing.T) {
	st := NewStore(nil)
	created, _ := st.CreateGroup("alice", testSpec())
	st.AddMember(created.Code, "bob")

	_, _, err := st.TransitionStatus(created.Code, redis_models.GroupLocked, "bob", "")
	assert.Equal(t, CodeAuthorization, CodeOf(err))
}

func TestCancelReleasesClaims(t *testing.T) {
	st := NewStore(nil)
	r := NewResolver(st)
	created, _ := st.CreateGroup("alice", testSpec())
	st.AddMember(created.Code, "bob")
	_, _, err := r.ClaimRoom(created.Code, "bob", 7, 2)
	require.NoError(t, err)

	view, ev, err := st.TransitionStatus(created.Code, redis_models.GroupCancelled, "alice", "plans changed")
	require.NoError(t, err)
	assert.Equal(t, redis_models.GroupCancelled, view.Status)
	assert.Equal(t, "plans changed", ev.Reason)
	for _, m := range view.Members {
		assert.Equal(t, redis_models.MemberCancelled, m.Status)
		assert.Zero(t, m.RoomID)
	}
}

// memSnapshots is an in-memory SnapshotStore used to test restore-on-miss.
type memSnapshots struct {
	sessions map[string]*redis_models.GroupSession
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{sessions: make(map[string]*redis_models.GroupSession)}
}

func (m *memSnapshots) SaveGroupSession(s *redis_models.GroupSession) error {
	copied := *s
	m.sessions[s.Code] = &copied
	return nil
}

func (m *memSnapshots) GetGroupSession(code string) (*redis_models.GroupSession, error) {
	s, ok := m.sessions[code]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *memSnapshots) DeleteGroupSession(code string) error {
	delete(m.sessions, code)
	return nil
}

func TestRestoreFromSnapshot(t *testing.T) {
	snapshots := newMemSnapshots()

	st := NewStore(snapshots)
	created, err := st.CreateGroup("alice", testSpec())
	require.NoError(t, err)
	_, _, err = st.AddMember(created.Code, "bob")
	require.NoError(t, err)

	// A fresh store simulates a restarted process sharing the snapshots
	restarted := NewStore(snapshots)
	view, err := restarted.GetGroup(created.Code)
	require.NoError(t, err)
	assert.NotNil(t, view.Member("bob"))
	assert.Equal(t, uint64(1), view.Seq)
}

// A freshly generated code may collide with a session that only survives as
// a Redis snapshot after a restart. Creation must skip it instead of
// overwriting the snapshot.
func TestCreateGroupAvoidsSnapshotCollision(t *testing.T) {
	snapshots := newMemSnapshots()
	require.NoError(t, snapshots.SaveGroupSession(&redis_models.GroupSession{
		Code:      "AAAAAA",
		Organizer: "zoe",
		Status:    redis_models.GroupOpen,
	}))

	st := NewStore(snapshots)
	codes := []string{"AAAAAA", "BBBBBB"}
	st.newCode = func() string {
		code := codes[0]
		if len(codes) > 1 {
			codes = codes[1:]
		}
		return code
	}

	created, err := st.CreateGroup("alice", testSpec())
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", created.Code)

	// The snapshot-only session is untouched
	survivor, err := snapshots.GetGroupSession("AAAAAA")
	require.NoError(t, err)
	require.NotNil(t, survivor)
	assert.Equal(t, "zoe", survivor.Organizer)
}
