package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"vtfitness_api/internal/models"
	"vtfitness_api/internal/services"
)

type NotifPreferenceHandler struct {
	db *gorm.DB
}

func NewNotifPreferenceHandler(db *gorm.DB) *NotifPreferenceHandler {
	return &NotifPreferenceHandler{db: db}
}

// Get returns a member's reminder delivery preference; members without a
// stored row default to email
func (h *NotifPreferenceHandler) Get(c echo.Context) error {
	memberID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var pref models.MemberNotifPreference
	err = h.db.Where("member_id = ?", memberID).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			pref = models.MemberNotifPreference{
				MemberID: memberID,
				Channel:  models.NotificationChannelEmail,
			}
			return c.JSON(http.StatusOK, dataResponse{Data: pref})
		}
		return &services.PersistenceError{Op: "load notification preference", Err: err}
	}

	return c.JSON(http.StatusOK, dataResponse{Data: pref})
}

// notifPreferenceRequest is the JSON body for setting a preference
type notifPreferenceRequest struct {
	Channel            string `json:"channel"`
	WhatsappTargetType string `json:"whatsapp_target_type"`
	WhatsappGroupID    string `json:"whatsapp_group_id"`
}

// Set upserts a member's reminder delivery preference
func (h *NotifPreferenceHandler) Set(c echo.Context) error {
	memberID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var member models.Member
	if err := h.db.First(&member, memberID).Error; err != nil {
		return &services.NotFoundError{Entity: "member", ID: memberID}
	}

	var req notifPreferenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	channel := models.NotificationChannel(req.Channel)
	switch channel {
	case models.NotificationChannelEmail, models.NotificationChannelWhatsapp, models.NotificationChannelNone:
	default:
		return &services.ValidationError{Field: "channel", Reason: "must be email, whatsapp or none"}
	}

	targetType := req.WhatsappTargetType
	if targetType == "" {
		targetType = models.WhatsappTargetTypePersonal
	}
	if channel == models.NotificationChannelWhatsapp {
		if targetType != models.WhatsappTargetTypePersonal && targetType != models.WhatsappTargetTypeGroup {
			return &services.ValidationError{Field: "whatsapp_target_type", Reason: "must be personal or group"}
		}
		if targetType == models.WhatsappTargetTypeGroup && req.WhatsappGroupID == "" {
			return &services.ValidationError{Field: "whatsapp_group_id", Reason: "is required for group delivery"}
		}
	}

	var pref models.MemberNotifPreference
	err = h.db.Where("member_id = ?", memberID).First(&pref).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return &services.PersistenceError{Op: "load notification preference", Err: err}
	}

	pref.MemberID = memberID
	pref.Channel = channel
	pref.WhatsappTargetType = targetType
	pref.WhatsappGroupID = req.WhatsappGroupID

	if err := h.db.Save(&pref).Error; err != nil {
		return &services.PersistenceError{Op: "save notification preference", Err: err}
	}

	return c.JSON(http.StatusOK, dataResponse{Message: "Notification preference saved", Data: pref})
}
