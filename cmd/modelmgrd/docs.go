package main

// General API documentation for swaggo. Run `swag init -g cmd/modelmgrd/docs.go`
// to generate docs.
//
// @title           modelmgrd API
// @version         1.0
// @description     HTTP API for on-device model lifecycle management: download, load, generate, unload.
//
// @contact.name   modelmgrd maintainers
// @contact.url    https://github.com/your-org/modelmgrd
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
