// Package mocks holds gomock doubles of the node's collaborators.
package mocks

//go:generate go run go.uber.org/mock/mockgen -source=../../collaborators.go -destination=mock_collaborators.go -package=mocks
