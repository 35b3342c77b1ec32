package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/nimbusdrive/nimbus/internal/auth"
	"github.com/nimbusdrive/nimbus/pkg/drive"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return fiber.NewError(fiber.StatusBadRequest, "a valid email is required")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if len(req.Password) < 8 {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user, err := s.store.CreateUser(c.Context(), &drive.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		StorageLimit: drive.DefaultStorageLimit,
	})
	if err != nil {
		return err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return err
	}

	log.Info().Stringer("user_id", user.ID).Msg("user registered")
	return c.Status(fiber.StatusCreated).JSON(sessionResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := s.store.UserByEmail(c.Context(), req.Email)
	if err != nil {
		// A missing account and a wrong password look identical.
		if drive.IsCode(err, drive.ErrNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return err
	}

	return c.JSON(sessionResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	userID := callerID(c)

	user, err := s.store.UserByID(c.Context(), userID)
	if err != nil {
		return err
	}
	usage, err := s.quota.Usage(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(meResponse{
		User:  toUserResponse(user),
		Usage: usage,
	})
}
