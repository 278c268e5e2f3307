// Package backend is a client for the CMS REST endpoints that persist
// ignore lists and serve server-computed page and taxonomy checks.
package backend
