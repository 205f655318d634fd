package domain

import "errors"

var (
	ErrAdvisorNotFound   = errors.New("advisor not found")
	ErrClientNotFound    = errors.New("client not found")
	ErrPortfolioNotFound = errors.New("portfolio not found")
)
