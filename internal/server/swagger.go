package server

//go:generate swag init -g internal/server/server.go -o internal/server/docs

// @title PhishGuard API
// @version 0.1
// @description Scan sessions, live scan state and operator diagnostics for the PhishGuard URL scanner.
// @contact.name PhishGuard Maintainers
// @contact.url https://github.com/raysh454/phishguard
// @BasePath /
