// Package docs provides generated OpenAPI documentation.
//
// pylearn API
//
//	@title			pylearn API
//	@version		1.0
//	@description	Single-user Python learning backend: exercise generation, solution feedback, progress tracking, and PDF ingestion.
//
//	@host		localhost:8000
//	@BasePath	/
//
//	@schemes	http
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package docs

//go:generate swag init -g ../cmd/pylearn/serve.go -o ./swagger --parseDependency --parseInternal
