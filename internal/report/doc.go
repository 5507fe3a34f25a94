// Package report renders stored runs: text charts for the terminal, PNG
// plots and OpenMetrics exposition text.
package report
