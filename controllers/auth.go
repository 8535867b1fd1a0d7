package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"salon-backoffice/models"
	"salon-backoffice/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Name     string      `json:"name" binding:"required"`
	Phone    string      `json:"phone" binding:"omitempty,phone"`
	Role     models.Role `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthController struct {
	db        *gorm.DB
	log       *logrus.Logger
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthController(db *gorm.DB, log *logrus.Logger, jwtSecret string, jwtExpiry time.Duration) *AuthController {
	return &AuthController{db: db, log: log, jwtSecret: jwtSecret, jwtExpiry: jwtExpiry}
}

func userResponse(u models.User) gin.H {
	return gin.H{
		"id":        u.ID,
		"email":     u.Email,
		"name":      u.Name,
		"phone":     u.Phone,
		"role":      u.Role,
		"lastLogin": u.LastLogin,
	}
}

// Register creates a back-office user. Only admins reach this handler.
func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Role == "" {
		input.Role = models.RoleStaff
	}
	if !input.Role.Valid() {
		utils.RespondWithError(c, http.StatusBadRequest, "Role must be ADMIN, MANAGER or STAFF")
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	var existing models.User
	if err := ac.db.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Email already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		_ = c.Error(err)
		return
	}

	user := models.User{
		Email:    email,
		Password: input.Password, // hashed in BeforeCreate
		Name:     input.Name,
		Phone:    utils.NormalizePhone(input.Phone),
		Role:     input.Role,
		IsActive: true,
	}
	if err := ac.db.Create(&user).Error; err != nil {
		_ = c.Error(err)
		return
	}

	ac.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")
	utils.RespondWithMessage(c, http.StatusCreated, "Registration successful", userResponse(user))
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	var user models.User
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := ac.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			_ = c.Error(err)
		}
		return
	}

	if !user.IsActive || !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID.String(), string(user.Role), ac.jwtSecret, ac.jwtExpiry)
	if err != nil {
		ac.log.WithError(err).Error("Failed to sign token")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	now := time.Now()
	if err := ac.db.Model(&user).Update("last_login", &now).Error; err != nil {
		ac.log.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}
	user.LastLogin = &now

	utils.RespondWithData(c, http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

func (ac *AuthController) Me(c *gin.Context) {
	var user models.User
	if err := ac.db.First(&user, "id = ?", c.GetString(utils.ContextUserID)).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}
	utils.RespondWithData(c, http.StatusOK, userResponse(user))
}

type UpdateProfileInput struct {
	Name  *string `json:"name" binding:"omitempty,min=1"`
	Phone *string `json:"phone"`
}

// UpdateProfile lets the signed-in user edit their own name and phone.
func (ac *AuthController) UpdateProfile(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var user models.User
	if err := ac.db.First(&user, "id = ?", c.GetString(utils.ContextUserID)).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
		updates["name"] = user.Name
	}
	if input.Phone != nil {
		phone := utils.NormalizePhone(*input.Phone)
		if phone != "" && !utils.ValidatePhone(phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		user.Phone = phone
		updates["phone"] = phone
	}

	if len(updates) > 0 {
		if err := ac.db.Model(&user).Updates(updates).Error; err != nil {
			_ = c.Error(err)
			return
		}
	}
	utils.RespondWithMessage(c, http.StatusOK, "Profile updated", userResponse(user))
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

func (ac *AuthController) ChangePassword(c *gin.Context) {
	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var user models.User
	if err := ac.db.First(&user, "id = ?", c.GetString(utils.ContextUserID)).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}
	if !utils.CheckPasswordHash(input.CurrentPassword, user.Password) {
		utils.RespondWithError(c, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	hashed, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := ac.db.Model(&user).Update("password", hashed).Error; err != nil {
		_ = c.Error(err)
		return
	}

	ac.log.WithField("user_id", user.ID).Info("Password changed")
	utils.RespondWithMessage(c, http.StatusOK, "Password updated", nil)
}
