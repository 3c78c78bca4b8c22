package gateway

import (
	"strings"
	"time"
)

// mockExecute produces a canned execution result for an accepted
// command. No process is ever spawned; the output is derived from the
// command text alone.
func mockExecute(commandText string) string {
	cmd := strings.ToLower(strings.TrimSpace(commandText))

	switch {
	case strings.HasPrefix(cmd, "ls"):
		return "file1.txt\nfile2.txt\ndir1/\ndir2/"
	case strings.HasPrefix(cmd, "pwd"):
		return "/home/user/projects"
	case strings.HasPrefix(cmd, "whoami"):
		return "gateway_user"
	case strings.HasPrefix(cmd, "date"):
		return time.Now().UTC().Format("Mon Jan 2 15:04:05 UTC 2006")
	case strings.HasPrefix(cmd, "echo"):
		if len(commandText) > 5 {
			return commandText[5:]
		}
		return ""
	case strings.HasPrefix(cmd, "git status"):
		return "On branch main\nYour branch is up to date with 'origin/main'.\nnothing to commit, working tree clean"
	case strings.HasPrefix(cmd, "git log"):
		return "commit abc123 (HEAD -> main)\nAuthor: User <user@example.com>\nDate: Today\n\n    Initial commit"
	case strings.HasPrefix(cmd, "cat"):
		return "[Mock file content]\nLine 1\nLine 2\nLine 3"
	case strings.HasPrefix(cmd, "hostname"):
		return "command-gateway-server"
	case strings.HasPrefix(cmd, "uptime"):
		return " 14:30:00 up 30 days,  2:15,  1 user,  load average: 0.00, 0.01, 0.05"
	case strings.HasPrefix(cmd, "df"):
		return "Filesystem     1K-blocks    Used Available Use% Mounted on\n/dev/sda1      100000000 50000000  50000000  50% /"
	case strings.HasPrefix(cmd, "free"):
		return "              total        used        free\nMem:        8000000     4000000     4000000\nSwap:       2000000           0     2000000"
	case strings.HasPrefix(cmd, "ps"):
		return "  PID TTY          TIME CMD\n    1 ?        00:00:01 init\n  100 pts/0    00:00:00 bash"
	default:
		return "[Mocked execution of: " + commandText + "]\nCommand executed successfully."
	}
}
