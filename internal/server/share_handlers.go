package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nimbusdrive/nimbus/pkg/drive"
)

type shareRequest struct {
	Email      string `json:"user_email"`
	Permission string `json:"permission"`
}

type unshareRequest struct {
	Email string `json:"user_email"`
}

func (s *Server) handleShare(c *fiber.Ctx) error {
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid file id")
	}

	var req shareRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Permission == "" {
		req.Permission = string(drive.PermissionView)
	}

	target, err := s.sharing.Share(c.Context(), callerID(c), fileID, req.Email, drive.Permission(req.Permission))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"shared_with": toUserResponse(target),
		"permission":  req.Permission,
	})
}

func (s *Server) handleUnshare(c *fiber.Ctx) error {
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid file id")
	}

	var req unshareRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.sharing.Unshare(c.Context(), callerID(c), fileID, req.Email); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSharedWithMe(c *fiber.Ctx) error {
	userID := callerID(c)
	items, err := s.sharing.SharedWithMe(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": toFileResponses(items, userID)})
}
