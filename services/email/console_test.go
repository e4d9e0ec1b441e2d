package emailsvc

import (
	"bytes"
	"log"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/markaz/core"
	logsvc "github.com/trezcool/markaz/services/logger"
)

func TestConsoleServiceMock(t *testing.T) {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(new(bytes.Buffer), "", 0), conf)
	core.ParseEmailTemplates(conf, logger)
	svc := NewConsoleServiceMock(conf, logger)

	to := []mail.Address{{Name: "Ali", Address: "ali@test.test"}}
	svc.SendMessages(
		&core.EmailMessage{
			To:           to,
			Subject:      "Password Reset",
			TemplateName: "password_reset",
			TemplateData: map[string]interface{}{"Name": "Ali", "Username": "ali", "UID": "uid", "Token": "tkn"},
		},
		&core.EmailMessage{To: to, Subject: "Plain", BodyStr: "hello"},
		&core.EmailMessage{Subject: "No recipients", BodyStr: "hello"},
		&core.EmailMessage{To: to, Subject: "No content"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].TextContent, conf.FrontendBaseURL+"/password-reset/uid/tkn")
	assert.Contains(t, sent[0].HTMLContent, "tkn")
	assert.Equal(t, "hello", sent[1].TextContent)

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

func TestConsoleService_build(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewConsoleService(conf, nil)

	msg := core.EmailMessage{
		To:          []mail.Address{{Address: "a@test.test"}, {Address: "b@test.test"}},
		Subject:     "Statement",
		TextContent: "see attached",
	}
	require.NoError(t, msg.Attach(strings.NewReader("a,b\n1,2\n"), "statement.csv", "text/csv"))

	body, err := svc.build(msg)
	require.NoError(t, err)
	assert.Contains(t, body, "Subject: [Markaz] Statement\r\n")
	assert.Contains(t, body, "To: <a@test.test>, <b@test.test>\r\n")
	assert.Contains(t, body, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, body, "filename=statement.csv")
	assert.Contains(t, body, "see attached")
}
