package coordination

import (
	"log"

	redis_models "Staymates/models/redis"
	"Staymates/services/reservations"
)

// Publisher receives the event produced by each successful mutation. The
// broadcaster implements it; a nil Publisher disables fanout.
type Publisher interface {
	Publish(ev Event)
	CloseTopic(code string)
}

// Persister mirrors live state into durable storage after mutations. The
// sync manager implements it; a nil Persister disables write-behind.
type Persister interface {
	SyncGroupState(code string) error
	CleanupGroupData(code string) error
}

// Service is the authorization-checked façade over the store and the
// resolver. Every successful mutation publishes exactly one event and
// triggers an asynchronous write-behind sync; neither can block or fail
// the originating call.
type Service struct {
	store        *Store
	resolver     *Resolver
	publisher    Publisher
	persister    Persister
	reservations reservations.Service
	inventory    reservations.Inventory
}

func NewService(store *Store, resolver *Resolver, publisher Publisher, persister Persister,
	resv reservations.Service, inv reservations.Inventory) *Service {
	return &Service{
		store:        store,
		resolver:     resolver,
		publisher:    publisher,
		persister:    persister,
		reservations: resv,
		inventory:    inv,
	}
}

// CreateGroup opens a new session with organizer as its fixed organizer.
func (svc *Service) CreateGroup(organizer string, spec GroupSpec) (*SessionView, error) {
	view, err := svc.store.CreateGroup(organizer, spec)
	if err != nil {
		return nil, err
	}
	svc.persist(view.Code)
	return view, nil
}

// JoinGroup adds username to the session identified by its join code.
func (svc *Service) JoinGroup(code, username string) (*SessionView, error) {
	view, ev, err := svc.store.AddMember(code, username)
	if err != nil {
		return nil, err
	}
	svc.finish(ev)
	return view, nil
}

// GetGroup returns a snapshot. Reads are member-only.
func (svc *Service) GetGroup(code, requester string) (*SessionView, error) {
	view, err := svc.store.GetGroup(code)
	if err != nil {
		return nil, err
	}
	if view.Member(requester) == nil {
		return nil, newError(CodeAuthorization, "", "user %s is not a member of group %s", requester, code)
	}
	return view, nil
}

// SelectRoom claims roomID for username (replace semantics, first committer
// wins on conflicts).
func (svc *Service) SelectRoom(code, username string, roomID, guestCount int) (*SessionView, error) {
	view, ev, err := svc.resolver.ClaimRoom(code, username, roomID, guestCount)
	if err != nil {
		return nil, err
	}
	svc.finish(ev)
	return view, nil
}

// LockGroup freezes the member list and the claim set. Organizer only.
// Members may still be PENDING; they are dealt with at confirmation.
func (svc *Service) LockGroup(code, actor string) (*SessionView, error) {
	view, ev, err := svc.store.TransitionStatus(code, redis_models.GroupLocked, actor, "")
	if err != nil {
		return nil, err
	}
	svc.finish(ev)
	return view, nil
}

// ConfirmGroup creates one reservation per room-selected member, then moves
// the session to CONFIRMED. Reservation calls are best-effort: if any of
// them fails the session stays LOCKED, the successes are kept and the
// failures are reported explicitly. Organizer only.
func (svc *Service) ConfirmGroup(code, actor string) (*SessionView, error) {
	view, err := svc.store.GetGroup(code)
	if err != nil {
		return nil, err
	}
	if actor != view.Organizer {
		return nil, newError(CodeAuthorization, "", "only the organizer may confirm group %s", code)
	}
	if view.Status != redis_models.GroupLocked {
		return nil, newError(CodeState, "", "group %s must be LOCKED to confirm, it is %s", code, view.Status)
	}

	// The claim set cannot change while the group is LOCKED, so the
	// per-room reservation calls run outside the session lock.
	prices := svc.roomPrices(view)
	nights := int(view.CheckOut.Sub(view.CheckIn).Hours() / 24)
	var failed []string
	var totalPrice float64
	for _, m := range view.Members {
		if m.Status != redis_models.MemberRoomSelected {
			continue
		}
		ref, err := svc.reservations.CreateReservation(view.HotelID, m.RoomID,
			view.CheckIn, view.CheckOut, m.GuestCount, m.Username, code)
		if err != nil {
			log.Printf("[CONFIRM-ERROR] Reservation for room %d (user %s) in group %s failed: %v",
				m.RoomID, m.Username, code, err)
			failed = append(failed, m.Username)
			continue
		}
		totalPrice += prices[m.RoomID] * float64(nights)
		log.Printf("[CONFIRM] Reservation %s created for room %d (user %s) in group %s",
			ref, m.RoomID, m.Username, code)
	}
	if len(failed) > 0 {
		return nil, &PartialConfirmationFailure{GroupCode: code, Failed: failed}
	}

	view, ev, err := svc.store.ConfirmGroup(code, actor, totalPrice)
	if err != nil {
		return nil, err
	}
	svc.finish(ev)
	svc.closeTopic(code)
	return view, nil
}

// CancelGroup aborts the session from any non-terminal state, releasing
// every claim. Organizer only.
func (svc *Service) CancelGroup(code, actor, reason string) (*SessionView, error) {
	view, ev, err := svc.store.TransitionStatus(code, redis_models.GroupCancelled, actor, reason)
	if err != nil {
		return nil, err
	}
	svc.finish(ev)
	svc.closeTopic(code)
	return view, nil
}

// LeaveGroup removes a non-organizer member and releases their claim.
// Leaving a group one is not in succeeds, so retries are safe.
func (svc *Service) LeaveGroup(code, username string) error {
	_, ev, err := svc.store.RemoveMember(code, username)
	if err != nil {
		return err
	}
	svc.finish(ev)
	return nil
}

// AvailableRooms lists candidate rooms for the session's hotel and dates.
func (svc *Service) AvailableRooms(code, requester string) ([]reservations.RoomSummary, error) {
	view, err := svc.GetGroup(code, requester)
	if err != nil {
		return nil, err
	}
	if svc.inventory == nil {
		return nil, nil
	}
	return svc.inventory.GetAvailableRooms(view.HotelID, view.CheckIn, view.CheckOut)
}

// finish runs the post-mutation path: publish the event, then kick off the
// async write-behind. A nil event means the mutation was an idempotent
// no-op and there is nothing to announce.
func (svc *Service) finish(ev *Event) {
	if ev == nil {
		return
	}
	if svc.publisher != nil {
		svc.publisher.Publish(*ev)
	}
	svc.persist(ev.GroupCode)
}

func (svc *Service) persist(code string) {
	if svc.persister == nil {
		return
	}
	go func() {
		if err := svc.persister.SyncGroupState(code); err != nil {
			log.Printf("[SYNC-ERROR] Error syncing group %s to PostgreSQL: %v", code, err)
		}
	}()
}

func (svc *Service) closeTopic(code string) {
	if svc.publisher != nil {
		svc.publisher.CloseTopic(code)
	}
	if svc.persister != nil {
		go func() {
			if err := svc.persister.CleanupGroupData(code); err != nil {
				log.Printf("[SYNC-ERROR] Error cleaning up group %s: %v", code, err)
			}
		}()
	}
}

func (svc *Service) roomPrices(view *SessionView) map[int]float64 {
	prices := make(map[int]float64)
	if svc.inventory == nil {
		return prices
	}
	rooms, err := svc.inventory.GetAvailableRooms(view.HotelID, view.CheckIn, view.CheckOut)
	if err != nil {
		// Pricing is informational; a failed lookup must not block the
		// confirmation itself.
		log.Printf("[CONFIRM] Could not price rooms for group %s: %v", view.Code, err)
		return prices
	}
	for _, r := range rooms {
		prices[r.ID] = r.PricePerNight
	}
	return prices
}
