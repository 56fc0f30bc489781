// Package models mirrors the JSON documents exchanged with the backend.
package models
