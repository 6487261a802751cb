package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/models"
	"github.com/gofiber/fiber/v2"
)

// decode reads the JSON body into v. Malformed bodies are validation errors.
func decode(c *fiber.Ctx, v any) error {
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", common.ErrorValidation, err)
	}
	return nil
}

// pathID returns the unescaped :id parameter.
func pathID(c *fiber.Ctx) (string, error) {
	id, err := url.PathUnescape(c.Params("id"))
	if err != nil || id == "" {
		return "", fmt.Errorf("%w: invalid id", common.ErrorValidation)
	}
	return id, nil
}

// probes

func (h *handlers) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

func (h *handlers) live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

func (h *handlers) ready(c *fiber.Ctx) error {
	if h.DB == nil {
		return c.JSON(fiber.Map{"status": "ready"})
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		return writeError(c, fiber.StatusServiceUnavailable, "database unreachable", "unavailable")
	}
	return c.JSON(fiber.Map{"status": "ready", "database": "ok"})
}

// auth

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type userEnvelope struct {
	User models.User `json:"user"`
}

type passwordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *handlers) register(c *fiber.Ctx) error {
	var in credentials
	if err := decode(c, &in); err != nil {
		return err
	}
	resp, err := h.Accounts.Register(c.UserContext(), in.Email, in.Password, in.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *handlers) login(c *fiber.Ctx) error {
	var in credentials
	if err := decode(c, &in); err != nil {
		return err
	}
	resp, err := h.Accounts.Login(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *handlers) verify(c *fiber.Ctx) error {
	u, err := h.Accounts.Profile(c.UserContext(), identity(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(userEnvelope{User: u})
}

func (h *handlers) updateProfile(c *fiber.Ctx) error {
	var in struct {
		Name string `json:"name"`
	}
	if err := decode(c, &in); err != nil {
		return err
	}
	u, err := h.Accounts.UpdateProfile(c.UserContext(), identity(c).UserID, in.Name)
	if err != nil {
		return err
	}
	return c.JSON(userEnvelope{User: u})
}

func (h *handlers) changePassword(c *fiber.Ctx) error {
	var in passwordChange
	if err := decode(c, &in); err != nil {
		return err
	}
	if err := h.Accounts.ChangePassword(c.UserContext(), identity(c), in.CurrentPassword, in.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) logout(c *fiber.Ctx) error {
	if err := h.Accounts.Logout(c.UserContext(), identity(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// objects

type bulkObjects struct {
	Objects *[]models.Object `json:"objects"`
}

func (h *handlers) listObjects(c *fiber.Ctx) error {
	objects, err := h.Collections.ListObjects(c.UserContext(), identity(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(models.BulkObjects{Objects: objects})
}

func (h *handlers) createObject(c *fiber.Ctx) error {
	var obj models.Object
	if err := decode(c, &obj); err != nil {
		return err
	}
	created, err := h.Collections.CreateObject(c.UserContext(), identity(c).UserID, obj)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *handlers) updateObject(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var obj models.Object
	if err := decode(c, &obj); err != nil {
		return err
	}
	updated, err := h.Collections.UpdateObject(c.UserContext(), identity(c).UserID, id, obj)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *handlers) deleteObject(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Collections.DeleteObject(c.UserContext(), identity(c).UserID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) replaceObjects(c *fiber.Ctx) error {
	var in bulkObjects
	if err := decode(c, &in); err != nil {
		return err
	}
	if in.Objects == nil {
		return fmt.Errorf("%w: objects is required", common.ErrorValidation)
	}
	n, err := h.Collections.ReplaceObjects(c.UserContext(), identity(c).UserID, *in.Objects)
	if err != nil {
		return err
	}
	return c.JSON(models.BulkResult{Count: n})
}

// scheduled items

type bulkScheduledItems struct {
	ScheduledItems *[]models.ScheduledItem `json:"scheduledItems"`
}

func (h *handlers) listScheduledItems(c *fiber.Ctx) error {
	items, err := h.Collections.ListScheduledItems(c.UserContext(), identity(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(models.BulkScheduledItems{ScheduledItems: items})
}

func (h *handlers) createScheduledItem(c *fiber.Ctx) error {
	var item models.ScheduledItem
	if err := decode(c, &item); err != nil {
		return err
	}
	created, err := h.Collections.CreateScheduledItem(c.UserContext(), identity(c).UserID, item)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *handlers) updateScheduledItem(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var item models.ScheduledItem
	if err := decode(c, &item); err != nil {
		return err
	}
	updated, err := h.Collections.UpdateScheduledItem(c.UserContext(), identity(c).UserID, id, item)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *handlers) deleteScheduledItem(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Collections.DeleteScheduledItem(c.UserContext(), identity(c).UserID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) replaceScheduledItems(c *fiber.Ctx) error {
	var in bulkScheduledItems
	if err := decode(c, &in); err != nil {
		return err
	}
	if in.ScheduledItems == nil {
		return fmt.Errorf("%w: scheduledItems is required", common.ErrorValidation)
	}
	n, err := h.Collections.ReplaceScheduledItems(c.UserContext(), identity(c).UserID, *in.ScheduledItems)
	if err != nil {
		return err
	}
	return c.JSON(models.BulkResult{Count: n})
}

// backups

func (h *handlers) presignBackup(c *fiber.Ctx) error {
	target, err := h.Backups.PresignBackup(c.UserContext(), identity(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(target)
}
