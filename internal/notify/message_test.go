package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/stretchr/testify/assert"
)

func Test_Message_HTML(t *testing.T) {
	msg := Message{Heading: "Heads up", Lines: []string{"one", "two"}}

	assert.Equal(t, "<h1>Heads up</h1><br><br>\none<br><br>\ntwo<br><br>\n", msg.HTML(""))
	assert.Equal(t,
		"<h1>Heads up</h1><br><br>\none<br><br>\ntwo<br><br>\n<hr><small>pi &lt;lab&gt;</small>\n",
		msg.HTML("pi <lab>"))
}

func Test_Message_Empty(t *testing.T) {
	assert.True(t, Message{Heading: "x"}.Empty())
	assert.False(t, Message{Lines: []string{"x"}}.Empty())
}

func Test_HostFooter_Cases(t *testing.T) {
	tests := []struct {
		name string
		info HostInfoFunc
		want string
	}{
		{name: "nil source", info: nil, want: ""},
		{
			name: "lookup fails",
			info: func(context.Context) (*host.InfoStat, error) { return nil, errors.New("no /proc") },
			want: "",
		},
		{
			name: "hostname only",
			info: func(context.Context) (*host.InfoStat, error) { return &host.InfoStat{Hostname: "pi"}, nil },
			want: "Sent from pi",
		},
		{
			name: "platform without version",
			info: func(context.Context) (*host.InfoStat, error) {
				return &host.InfoStat{Hostname: "pi", Platform: "raspbian", Uptime: 3600}, nil
			},
			want: "Sent from pi (raspbian), up 1h0m0s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HostFooter(context.Background(), tt.info))
		})
	}
}
