// Package observability records game events as JSON Lines and derives
// gameplay metrics and health alerts from them on demand.
package observability
