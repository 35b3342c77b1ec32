package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// handleDeleteFile soft-deletes by default; ?permanent=true skips the
// trash and purges the item outright.
func (s *Server) handleDeleteFile(c *fiber.Ctx) error {
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid file id")
	}

	if c.QueryBool("permanent") {
		if err := s.trash.Purge(c.Context(), callerID(c), fileID); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}

	if err := s.trash.Trash(c.Context(), callerID(c), fileID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleRestoreFile(c *fiber.Ctx) error {
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid file id")
	}

	if err := s.trash.Restore(c.Context(), callerID(c), fileID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handlePurgeFile(c *fiber.Ctx) error {
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid file id")
	}

	if err := s.trash.Purge(c.Context(), callerID(c), fileID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleListTrash(c *fiber.Ctx) error {
	userID := callerID(c)
	items, err := s.trash.List(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": toFileResponses(items, userID)})
}

func (s *Server) handleEmptyTrash(c *fiber.Ctx) error {
	if err := s.trash.Empty(c.Context(), callerID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
