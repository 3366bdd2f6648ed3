package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jjfwang/aceceed-edge/session"
)

// printStatus 以表格输出服务就绪情况，全部就绪时返回 true
func printStatus(w io.Writer, services []session.ServiceStatus) bool {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tBACKEND\tREADY\tDETAILS")

	allReady := true
	for _, s := range services {
		ready := "yes"
		if !s.Ready {
			ready = "no"
			allReady = false
		}
		details := s.Details
		if details == "" {
			details = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Backend, ready, details)
	}
	tw.Flush()
	return allReady
}
