// Package chrome provides the headless Chrome backend using go-rod.
// Importing it for side effects registers the backend with the platform package.
package chrome
