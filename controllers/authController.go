package controllers

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"savdo-backend/database"
	"savdo-backend/middlewares"
	"savdo-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RegisterDTO struct {
	Name            string `json:"name" validate:"required,min=1"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// POST /api/register. The first account becomes admin, the rest staff.
func Register(c *fiber.Ctx) error {
	var in RegisterDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.Password != in.PasswordConfirm {
		return fiber.NewError(fiber.StatusBadRequest, "passwords do not match")
	}

	var exists models.User
	err := database.DB.Where("email = ?", in.Email).First(&exists).Error
	if err == nil {
		return fiber.NewError(fiber.StatusBadRequest, "email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	role := models.RoleStaff
	var count int64
	if err := database.DB.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		role = models.RoleAdmin
	}

	user := models.User{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		Role:  role,
	}
	user.SetPassword(in.Password)
	if err := database.DB.Create(&user).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create user")
	}
	return c.JSON(user)
}

// POST /api/login
func Login(c *fiber.Ctx) error {
	var data map[string]string
	if err := c.BodyParser(&data); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if _, err := mail.ParseAddress(data["email"]); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid email format")
	}

	var user models.User
	err := database.DB.Where("email = ?", data["email"]).First(&user).Error
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid credentials")
	}
	if err := user.ComparePassword(data["password"]); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid credentials")
	}

	token, err := middlewares.GenerateJWT(user.Id, user.Role)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    user.Id,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// POST /api/logout. Tokens are stateless; clear the legacy cookie if any.
func Logout(c *fiber.Ctx) error {
	cookie := fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	}
	c.Cookie(&cookie)
	return c.JSON(fiber.Map{"message": "success"})
}

// GET /api/admins
func GetAdmins(c *fiber.Ctx) error {
	var users []models.User
	if err := database.DB.Order("name").Find(&users).Error; err != nil {
		return err
	}
	return c.JSON(users)
}

type AdminCreateDTO struct {
	Name     string `json:"name" validate:"required,min=1"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=admin staff"`
}

// POST /api/admins
func CreateAdmin(c *fiber.Ctx) error {
	var in AdminCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	role := in.Role
	if role == "" {
		role = models.RoleStaff
	}
	user := models.User{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		Role:  role,
	}
	user.SetPassword(in.Password)
	if err := database.DB.Create(&user).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create user")
	}
	return c.JSON(user)
}

type AdminUpdateDTO struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin staff"`
}

// PUT /api/admins/:id
func UpdateAdmin(c *fiber.Ctx) error {
	var in AdminUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		user.Email = strings.TrimSpace(*in.Email)
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.Password != nil {
		user.SetPassword(*in.Password)
	}
	if err := database.DB.Save(&user).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update user")
	}
	return c.JSON(user)
}

// DELETE /api/admins/:id
func DeleteAdmin(c *fiber.Ctx) error {
	id := c.Params("id")
	res := database.DB.Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	return c.JSON(fiber.Map{"message": "user deleted"})
}
