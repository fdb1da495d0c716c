package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aryan0dhankhar/hobbyapi/internal/security/auth"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	c := newClient(getAPIURL(), loadToken())
	command, rest := args[0], args[1:]

	var err error
	switch command {
	case "user":
		err = handleUser(c, rest, stdout)
	case "hobby":
		err = handleHobby(c, rest, stdout)
	case "token":
		err = mintToken(rest, stdout)
	case "help":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", command)
		printUsage(stderr)
		return 1
	}

	if err != nil {
		fmt.Fprintf(stderr, "✗ %v\n", err)
		return 1
	}
	return 0
}

func handleUser(c *client, args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: hobbyapi user <list|get|create|update|delete>")
	}

	sub, args := args[0], args[1:]
	switch sub {
	case "list":
		var users []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Hobbies []struct {
				Name string `json:"name"`
			} `json:"hobbies"`
		}
		if err := c.list("/users", args, &users); err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tHOBBIES")
		for _, u := range users {
			names := make([]string, len(u.Hobbies))
			for i, h := range u.Hobbies {
				names[i] = h.Name
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Name, strings.Join(names, ", "))
		}
		return w.Flush()

	case "get", "delete":
		if len(args) < 1 {
			return fmt.Errorf("usage: hobbyapi user %s <user-id>", sub)
		}
		method := http.MethodGet
		if sub == "delete" {
			method = http.MethodDelete
		}
		return c.print(out, method, "/users/"+args[0], nil)

	case "create":
		fs := flag.NewFlagSet("user create", flag.ContinueOnError)
		name := fs.String("name", "", "user name (4-30 characters)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *name == "" {
			return fmt.Errorf("-name is required")
		}
		return c.print(out, http.MethodPost, "/users", map[string]any{"name": *name})

	case "update":
		fs := flag.NewFlagSet("user update", flag.ContinueOnError)
		name := fs.String("name", "", "new user name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() < 1 {
			return fmt.Errorf("usage: hobbyapi user update -name <name> <user-id>")
		}
		body := map[string]any{}
		if *name != "" {
			body["name"] = *name
		}
		return c.print(out, http.MethodPut, "/users/"+fs.Arg(0), body)

	default:
		return fmt.Errorf("unknown user command: %s", sub)
	}
}

func handleHobby(c *client, args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: hobbyapi hobby <list|get|create|update|delete>")
	}

	sub, args := args[0], args[1:]
	switch sub {
	case "list":
		var hobbies []struct {
			ID           string `json:"id"`
			Name         string `json:"name"`
			PassionLevel string `json:"passionLevel"`
			Year         int    `json:"year"`
			UserID       *struct {
				Name string `json:"name"`
			} `json:"userId"`
		}
		if err := c.list("/hobbies", args, &hobbies); err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPASSION\tYEAR\tUSER")
		for _, h := range hobbies {
			owner := "-"
			if h.UserID != nil {
				owner = h.UserID.Name
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", h.ID, h.Name, h.PassionLevel, h.Year, owner)
		}
		return w.Flush()

	case "get", "delete":
		if len(args) < 1 {
			return fmt.Errorf("usage: hobbyapi hobby %s <hobby-id>", sub)
		}
		method := http.MethodGet
		if sub == "delete" {
			method = http.MethodDelete
		}
		return c.print(out, method, "/hobbies/"+args[0], nil)

	case "create":
		fs := flag.NewFlagSet("hobby create", flag.ContinueOnError)
		name := fs.String("name", "", "hobby name (4-30 characters)")
		passion := fs.String("passion", "", "passion level: Medium, High, Low or Very-High")
		year := fs.Int("year", time.Now().Year(), "year the hobby was taken up")
		user := fs.String("user", "", "owning user id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *name == "" || *passion == "" || *user == "" {
			return fmt.Errorf("-name, -passion and -user are required")
		}
		return c.print(out, http.MethodPost, "/hobbies", map[string]any{
			"name":         *name,
			"passionLevel": *passion,
			"year":         *year,
			"userId":       *user,
		})

	case "update":
		fs := flag.NewFlagSet("hobby update", flag.ContinueOnError)
		name := fs.String("name", "", "new hobby name")
		passion := fs.String("passion", "", "new passion level")
		year := fs.Int("year", 0, "new year")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() < 1 {
			return fmt.Errorf("usage: hobbyapi hobby update [-name] [-passion] [-year] <hobby-id>")
		}
		body := map[string]any{}
		if *name != "" {
			body["name"] = *name
		}
		if *passion != "" {
			body["passionLevel"] = *passion
		}
		if *year != 0 {
			body["year"] = *year
		}
		return c.print(out, http.MethodPut, "/hobbies/"+fs.Arg(0), body)

	default:
		return fmt.Errorf("unknown hobby command: %s", sub)
	}
}

// mintToken signs a bearer token with JWT_SECRET and stores it for later calls
func mintToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("subject", "cli", "token subject")
	name := fs.String("name", "", "display name recorded in the token")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	save := fs.Bool("save", true, "store the token for later commands")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tm, err := auth.NewTokenManager(os.Getenv("JWT_SECRET"), auth.DefaultIssuer)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}
	token, err := tm.GenerateToken(*subject, *name, *ttl)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	if *save {
		if err := saveToken(token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
	}
	fmt.Fprintln(out, token)
	return nil
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(baseURL, token string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends the request and returns the response body. Non-2xx answers are
// returned as errors carrying the API's message.
func (c *client) do(method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			if apiErr.Error != "" {
				return nil, fmt.Errorf("%s (%d): %s", apiErr.Message, resp.StatusCode, apiErr.Error)
			}
			return nil, fmt.Errorf("%s (%d)", apiErr.Message, resp.StatusCode)
		}
		return nil, fmt.Errorf("request failed: %s", resp.Status)
	}
	return data, nil
}

func (c *client) print(out io.Writer, method, path string, body any) error {
	data, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		_, err = out.Write(data)
		return err
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(out)
	return err
}

func (c *client) list(path string, args []string, v any) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "page size")
	offset := fs.Int("offset", 0, "records to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var q []string
	if *limit > 0 {
		q = append(q, fmt.Sprintf("limit=%d", *limit))
	}
	if *offset > 0 {
		q = append(q, fmt.Sprintf("offset=%d", *offset))
	}
	if len(q) > 0 {
		path += "?" + strings.Join(q, "&")
	}

	data, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("HOBBYAPI_URL"); url != "" {
		return strings.TrimRight(url, "/") + "/api"
	}
	return "http://localhost:3000/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".hobbyapi", "token")
}

func saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(tokenFile()), 0700); err != nil {
		return err
	}
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	if token := os.Getenv("HOBBYAPI_TOKEN"); token != "" {
		return token
	}
	data, _ := os.ReadFile(tokenFile())
	return strings.TrimSpace(string(data))
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `hobbyapi CLI

Usage:
  hobbyapi <command> [options]

Commands:
  user    User operations (list, get, create, update, delete)
  hobby   Hobby operations (list, get, create, update, delete)
  token   Mint a bearer token signed with JWT_SECRET
  help    Show this help message

Environment Variables:
  HOBBYAPI_URL      API server (default: http://localhost:3000)
  HOBBYAPI_TOKEN    Bearer token (default: ~/.hobbyapi/token)
  JWT_SECRET        Signing secret used by "token"

Examples:
  hobbyapi user create -name "Ada Lovelace"
  hobbyapi hobby create -name "Chess Club" -passion High -year 2020 -user <user-id>
  hobbyapi user list -limit 10 -offset 1
  hobbyapi hobby delete <hobby-id>
`)
}
