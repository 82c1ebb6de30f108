package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// TrackingPixelURL builds the 1x1 open-tracking pixel URL.
func TrackingPixelURL(baseURL, trackingID string) string {
	return fmt.Sprintf("%s/track/open/%s", strings.TrimRight(baseURL, "/"), trackingID)
}

// DecisionLinkURL builds the interested / not-interested link for the
// email footer. response is recorded verbatim on click.
func DecisionLinkURL(baseURL, trackingID, response string) string {
	return fmt.Sprintf("%s/track/response/%s?response=%s",
		strings.TrimRight(baseURL, "/"), trackingID, url.QueryEscape(response))
}

// InjectTracking appends the open pixel and decision links to the drafted
// HTML body. The pixel goes last so broken image rendering cannot push the
// content down.
func InjectTracking(htmlBody, baseURL, trackingID string) string {
	interested := DecisionLinkURL(baseURL, trackingID, "Interested")
	notInterested := DecisionLinkURL(baseURL, trackingID, "Not Interested")

	footer := fmt.Sprintf(
		`<br/><br/><p style="font-size:12px;color:#7f8c8d">`+
			`<a href="%s">I'm interested</a> &nbsp;|&nbsp; `+
			`<a href="%s">Not interested</a></p>`,
		interested, notInterested)

	pixel := fmt.Sprintf(`<img src="%s" alt="" width="1" height="1" style="display:none">`,
		TrackingPixelURL(baseURL, trackingID))

	return htmlBody + footer + pixel
}
