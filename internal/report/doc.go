// Package report renders site reports for human and machine
// consumption. The primary output is the HTML report written into the
// run directory; Markdown and JSON writers cover terminal and tool
// integration use.
package report
