package services

import "errors"

var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrCustomerInactive  = errors.New("customer is inactive")
	ErrServiceNotFound   = errors.New("service not found")
	ErrServiceInactive   = errors.New("service is inactive")
	ErrStaffNotFound     = errors.New("staff member not found or inactive")
	ErrVisitNotFound     = errors.New("visit not found")
	ErrNoServices        = errors.New("at least one service is required")
	ErrRuleNotFound      = errors.New("discount rule not found")
	ErrRuleNameTaken     = errors.New("discount rule name already exists")
	ErrInvalidRule       = errors.New("invalid discount rule")
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product is inactive")
	ErrInsufficientStock = errors.New("insufficient stock")
)
