package controllers

import (
	"Staymates/middleware"
	"Staymates/services/coordination"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GroupController exposes the group coordination operations over HTTP.
type GroupController struct {
	Service *coordination.Service
}

type createGroupRequest struct {
	HotelID      int        `json:"hotel_id" binding:"required"`
	CheckIn      time.Time  `json:"check_in" binding:"required"`
	CheckOut     time.Time  `json:"check_out" binding:"required"`
	MaxMembers   int        `json:"max_members" binding:"required"`
	JoinDeadline *time.Time `json:"join_deadline"`
}

type selectRoomRequest struct {
	RoomID     int `json:"room_id" binding:"required"`
	GuestCount int `json:"guest_count" binding:"required"`
}

type cancelGroupRequest struct {
	Reason string `json:"reason"`
}

// @Summary Creates a new booking group
// @Description Opens a group session for a hotel and date range and returns it, including its join code
// @Tags group
// @Accept json
// @Produce json
// @Param request body controllers.createGroupRequest true "Group parameters"
// @Success 200 {object} coordination.SessionView
// @Failure 400 {object} object{error=string}
// @Router /auth/groups [post]
// @Security ApiKeyAuth
func (gc *GroupController) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	view, err := gc.Service.CreateGroup(middleware.CurrentUsername(c), coordination.GroupSpec{
		HotelID:      req.HotelID,
		CheckIn:      req.CheckIn,
		CheckOut:     req.CheckOut,
		MaxMembers:   req.MaxMembers,
		JoinDeadline: req.JoinDeadline,
	})
	if err != nil {
		abortWithCoordinationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Joins a booking group
// @Description Adds the logged-in user to the group with the given join code
// @Tags group
// @Produce json
// @Param code path string true "Join code"
// @Success 200 {object} coordination.SessionView
// @Failure 404 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /auth/groups/{code}/join [post]
// @Security ApiKeyAuth
func (gc *GroupController) JoinGroup(c *gin.Context) {
	view, err := gc.Service.JoinGroup(c.Param("code"), middleware.CurrentUsername(c))
	if err != nil {
		abortWithCoordinationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Gives info of a booking group
// @Description Given a join code, it will return the group session snapshot
// @Tags group
// @Produce json
// @Param code path string true "Join code"
// @Success 200 {object} coordination.SessionView
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/groups/{code} [get]
// @Security ApiKeyAuth
func (gc *GroupController) GetGroup(c *gin.Context) {
	view, err := gc.Service.GetGroup(c.Param("code"), middleware.CurrentUsername(c))
	if err != nil {
		abortWithCoordinationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Claims a room for the logged-in user
// @Description Binds a room to the user within the group; replaces the user's previous claim, if any
// @Tags group
// @Accept json
// @Produce json
// @Param code path string true "Join code"
// @Param request body controllers.selectRoomRequest true "Room and guest count"
// @Success 200 {object} coordination.SessionView
// @Failure 409 {object} object{error=string}
// @Router /auth/groups/{code}/room [post]
// @Security ApiKeyAuth
func (gc *GroupController) SelectRoom(c *gin.Context) {
	var req selectRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	view, err := gc.Service.SelectRoom(c.Param("code"), middleware.CurrentUsername(c), req.RoomID, req.GuestCount)
	if err != nil {
		abortWithCoordinationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Locks a booking group
// @Description Freezes joins and room claims. Organizer only
// @Tags group
// @Produce json
// @Param code path string true "Join code"
// @Success 200 {object} coordination.SessionView
// @Failure 403 {object} object{error=string}
// @Router /auth/groups/{code}/lock [post]
// @Security ApiKeyAuth
func (gc *GroupController) LockGroup(c *gin.Context) {
	view, err := gc.Service.LockGroup(c.Param("code"), middleware.CurrentUsername(c))
	if err != nil {
		abortWithCoordinationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Confirms a booking group
// @Description Creates one reservation per selected room and finalizes the group. Organizer only
// @Tags group
// @Produce json
// @Param code path string true "Join code"
// @Success 200 {object} coordination.SessionView
// @Failure 403 {object} object{error=string}
// @Failure 409 {object} object{error=string,failed=[]string}
// @Router /auth/groups/{code}/confirm [post]
// @Security ApiKeyAuth
func (gc *GroupController) ConfirmGroup(c *gin.Context) {
	view, err := gc.Service.ConfirmGroup(c.Param("code"), middleware.CurrentUsername(c))
	if err != nil {
		abortWithCoordinationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Cancels a booking group
// @Description Aborts the group from any non-terminal state, releasing all claims. Organizer only
// @Tags group
// @Accept json
// @Produce json
// @Param code path string true "Join code"
// @Param request body controllers.cancelGroupRequest false "Optional reason"
// @Success 200 {object} coordination.SessionView
// @Failure 403 {object} object{error=string}
// @Router /auth/groups/{code}/cancel [post]
// @Security ApiKeyAuth
func (gc *GroupController) CancelGroup(c *gin.Context) {
	var req cancelGroupRequest
	_ = c.ShouldBindJSON(&req)

	view, err := gc.Service.CancelGroup(c.Param("code"), middleware.CurrentUsername(c), req.Reason)
	if err != nil {
		abortWithCoordinationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Leaves a booking group
// @Description Removes the logged-in user from the group, releasing their claim. Safe to retry
// @Tags group
// @Produce json
// @Param code path string true "Join code"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} object{error=string}
// @Router /auth/groups/{code}/leave [post]
// @Security ApiKeyAuth
func (gc *GroupController) LeaveGroup(c *gin.Context) {
	if err := gc.Service.LeaveGroup(c.Param("code"), middleware.CurrentUsername(c)); err != nil {
		abortWithCoordinationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left group successfully"})
}

// @Summary Lists candidate rooms for a group
// @Description Returns the rooms available for the group's hotel and dates
// @Tags group
// @Produce json
// @Param code path string true "Join code"
// @Success 200 {array} reservations.RoomSummary
// @Failure 404 {object} object{error=string}
// @Router /auth/groups/{code}/rooms [get]
// @Security ApiKeyAuth
func (gc *GroupController) AvailableRooms(c *gin.Context) {
	rooms, err := gc.Service.AvailableRooms(c.Param("code"), middleware.CurrentUsername(c))
	if err != nil {
		abortWithCoordinationError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// abortWithCoordinationError maps the typed coordination errors onto HTTP
// status codes.
func abortWithCoordinationError(c *gin.Context, err error) {
	var pf *coordination.PartialConfirmationFailure
	if errors.As(err, &pf) {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "PartialConfirmationFailure",
			"detail": pf.Error(),
			"failed": pf.Failed,
		})
		return
	}

	status := http.StatusInternalServerError
	switch coordination.CodeOf(err) {
	case coordination.CodeValidation:
		status = http.StatusBadRequest
	case coordination.CodeAuthorization:
		status = http.StatusForbidden
	case coordination.CodeState:
		status = http.StatusConflict
	case coordination.CodeConflict:
		status = http.StatusConflict
	case coordination.CodeCapacity:
		status = http.StatusForbidden
	case coordination.CodeNotFound:
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
