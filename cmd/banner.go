package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

type bannerInfo struct {
	WebURL    string
	SocketURL string
	HealthURL string
	PeerID    string
	Addrs     []string
	Topic     string
}

func printBanner(w io.Writer, info bannerInfo) {
	header := color.New(color.BgBlack, color.FgGreen).Render(" Swarm Relay is running ")
	_, _ = fmt.Fprintln(w, header)

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	table.Append([]string{"Web UI", info.WebURL})
	table.Append([]string{"WebSocket", info.SocketURL})
	if info.HealthURL != "" {
		table.Append([]string{"gRPC health", info.HealthURL})
	}
	table.Append([]string{"Peer ID", info.PeerID})
	table.Append([]string{"Listening on", strings.Join(info.Addrs, "\n")})
	if info.Topic != "" {
		table.Append([]string{"Startup room", info.Topic})
	}
	table.Render()
}
