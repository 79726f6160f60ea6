package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardanlabs/notary/app/tooling/admin/commands"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := commands.NewRootCmd(zap.NewNop().Sugar())
	cmd.SetOut(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func field(output string, name string) string {
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, name+":") {
			return strings.TrimSpace(strings.TrimPrefix(line, name+":"))
		}
	}
	return ""
}

func Test_Commands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger")
	docPath := filepath.Join(dir, "document.txt")

	if err := os.WriteFile(docPath, []byte("Este é um documento importante."), 0600); err != nil {
		t.Fatal(err)
	}

	storage := []string{"--storage", "disk", "--db-path", dbPath, "--workers", "2"}

	t.Log("Given the need to administer a ledger from the command line.")
	{
		t.Log("\tWhen notarizing a document.")
		{
			out, err := execute(t, append([]string{"notarize", docPath}, storage...)...)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to notarize the document: %v", failed, err)
			}

			receipt := field(out, "Receipt")
			if !strings.HasPrefix(receipt, "00") {
				t.Fatalf("\t%s\tShould print a receipt starting with \"00\": %s", failed, out)
			}
			t.Logf("\t%s\tShould print a receipt starting with \"00\".", success)

			if _, err := execute(t, append([]string{"verify", docPath, receipt}, storage...)...); err != nil {
				t.Fatalf("\t%s\tShould verify the receipt: %v", failed, err)
			}
			t.Logf("\t%s\tShould verify the receipt.", success)

			out, err = execute(t, append([]string{"validate"}, storage...)...)
			if err != nil || !strings.Contains(out, "VALID: 2 blocks") {
				t.Fatalf("\t%s\tShould validate 2 blocks: %s %v", failed, out, err)
			}
			t.Logf("\t%s\tShould validate 2 blocks.", success)

			out, err = execute(t, append([]string{"blocks", "--json"}, storage...)...)
			if err != nil || strings.Count(out, "\n") != 2 || !strings.Contains(out, receipt) {
				t.Fatalf("\t%s\tShould print both blocks: %s %v", failed, out, err)
			}
			t.Logf("\t%s\tShould print both blocks.", success)
		}

		t.Log("\tWhen a stored block is overwritten.")
		{
			path := filepath.Join(dbPath, "1.json")

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			data = bytes.Replace(data, []byte(`"nonce": `), []byte(`"nonce": 1`), 1)
			if err := os.WriteFile(path, data, 0600); err != nil {
				t.Fatal(err)
			}

			out, err := execute(t, append([]string{"validate"}, storage...)...)
			if err == nil || !strings.Contains(out, "INVALID: blk[1]") {
				t.Fatalf("\t%s\tShould report block 1 as corrupted: %s %v", failed, out, err)
			}
			t.Logf("\t%s\tShould report block 1 as corrupted.", success)
		}
	}
}

func Test_Solve(t *testing.T) {
	out, err := execute(t, "solve", "hello|", "2", "--workers", "4")
	if err != nil {
		t.Fatalf("Should solve the header: %s", err)
	}

	if !strings.HasPrefix(field(out, "Hash"), "00") {
		t.Fatalf("Should print a hash with two leading zeros: %s", out)
	}

	if _, err := execute(t, "solve", "hello|", "65"); err == nil {
		t.Fatal("Should reject a difficulty beyond the digest length")
	}
}
