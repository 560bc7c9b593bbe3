package onvif

import (
	"bytes"
	"encoding/xml"
	"net/http"
	"strconv"
	"strings"
)

// FaultError - camera answered with SOAP 1.2 Fault
type FaultError struct {
	Code    string
	Subcode string
	Reason  string
}

func (e *FaultError) Error() string {
	s := "onvif: fault " + e.Code
	if e.Subcode != "" {
		s += "/" + e.Subcode
	}
	if e.Reason != "" {
		s += ": " + e.Reason
	}
	return s
}

// StatusError - camera answered with non 2xx HTTP status
type StatusError struct {
	StatusCode int
	Fault      *FaultError
}

func (e *StatusError) Error() string {
	s := "onvif: wrong response " + strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode)
	if e.Fault != nil {
		s += " (" + e.Fault.Error() + ")"
	}
	return s
}

func (e *StatusError) Unwrap() error {
	if e.Fault == nil {
		return nil
	}
	return e.Fault
}

// CheckFault return *FaultError if body contains SOAP Fault
func CheckFault(body []byte) error {
	if !bytes.Contains(body, []byte("Fault")) {
		return nil
	}

	var env struct {
		Body struct {
			Fault *struct {
				Code struct {
					Value   string `xml:"Value"`
					Subcode struct {
						Value string `xml:"Value"`
					} `xml:"Subcode"`
				} `xml:"Code"`
				Reason struct {
					Text []string `xml:"Text"`
				} `xml:"Reason"`
				// SOAP 1.1 cameras
				FaultCode   string `xml:"faultcode"`
				FaultString string `xml:"faultstring"`
			} `xml:"Fault"`
		} `xml:"Body"`
	}

	if err := xml.Unmarshal(body, &env); err != nil || env.Body.Fault == nil {
		return nil
	}

	f := env.Body.Fault
	fault := &FaultError{
		Code:    trimPrefix(f.Code.Value),
		Subcode: trimPrefix(f.Code.Subcode.Value),
		Reason:  strings.TrimSpace(strings.Join(f.Reason.Text, " ")),
	}
	if fault.Code == "" {
		fault.Code = trimPrefix(f.FaultCode)
		fault.Reason = strings.TrimSpace(f.FaultString)
	}
	return fault
}

func checkResponse(statusCode int, body []byte) error {
	err := CheckFault(body)
	if statusCode < 200 || statusCode >= 300 {
		serr := &StatusError{StatusCode: statusCode}
		serr.Fault, _ = err.(*FaultError)
		return serr
	}
	return err
}

// trimPrefix - "env:Sender" => "Sender"
func trimPrefix(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}
