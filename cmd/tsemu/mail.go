// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	mail "gopkg.in/gomail.v2"
)

var (
	reportMailUsr  = os.Getenv("MAIL_USERNAME")
	reportMailPwd  = os.Getenv("MAIL_PASSWORD")
	reportMailSrv  = os.Getenv("MAIL_SERVER")
	reportMailPort = atoi(os.Getenv("MAIL_PORT"))
	reportMailTgts = targets(os.Getenv("MAIL_TGTS"))
)

func sendReport(rep report) {
	if reportMailUsr == "" || reportMailPwd == "" ||
		reportMailSrv == "" || reportMailPort == 0 ||
		len(reportMailTgts) == 0 {
		log.Printf("could not send run report: missing credentials")
		return
	}

	msg, err := newReport(reportMailUsr, reportMailTgts, rep)
	if err != nil {
		log.Printf("could not create run report: %+v", err)
		return
	}

	dial := mail.NewDialer(reportMailSrv, reportMailPort, reportMailUsr, reportMailPwd)
	dial.TLSConfig = &tls.Config{
		InsecureSkipVerify: true,
	}
	err = dial.DialAndSend(msg)
	if err != nil {
		log.Printf("could not send run report: %+v", err)
	}
}

func newReport(from string, tgts []string, rep report) (*mail.Message, error) {
	body := new(bytes.Buffer)
	fmt.Fprintf(body, "sequence: %q (%d bytes)\n", rep.name, rep.size)
	err := summary(body, rep)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("Bcc", tgts...)
	msg.SetHeader("Subject", fmt.Sprintf("[tsemu] run report: %q (%d pulses)", rep.name, rep.wf.Len()))
	msg.SetBody("text/plain", body.String())
	return msg, nil
}

func targets(s string) []string {
	var o []string
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		o = append(o, v)
	}
	return o
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
