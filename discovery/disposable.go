package discovery

import "strings"

// disposableDomains are providers of throwaway mailboxes; membership is a
// strong negative deliverability signal.
var disposableDomains = loadDisposableDomains()

func isDisposableDomain(domain string) bool {
	return disposableDomains[strings.ToLower(domain)]
}

func loadDisposableDomains() map[string]bool {
	domains := make(map[string]bool)
	for _, d := range strings.Split(disposableDomainList, "\n") {
		d = strings.TrimSpace(d)
		if d != "" {
			domains[d] = true
		}
	}
	return domains
}

const disposableDomainList = `
0-mail.com
0clickemail.com
10minutemail.com
10minutemail.co.za
20minutemail.com
30minutemail.com
33mail.com
60minutemail.com
anonbox.net
anonymbox.com
bugmenot.com
deadaddress.com
despammed.com
devnullmail.com
discard.email
discardmail.com
disposableaddress.com
disposableinbox.com
dispostable.com
dodgit.com
dontreg.com
dump-email.info
dumpyemail.com
e4ward.com
emailsensei.com
emailtemporario.com.br
fakeinbox.com
filzmail.com
getairmail.com
getonemail.com
guerrillamail.biz
guerrillamail.com
guerrillamail.de
guerrillamail.net
guerrillamail.org
guerrillamailblock.com
harakirimail.com
incognitomail.com
jetable.org
kasmail.com
killmail.net
klzlk.com
kurzepost.de
mail-temporaire.fr
mailcatch.com
maildrop.cc
maileater.com
mailexpire.com
mailforspam.com
mailinator.com
mailinator.net
mailinator2.com
mailmetrash.com
mailnesia.com
mailnull.com
mailsac.com
mailtemp.info
meltmail.com
mintemail.com
mytemp.email
mytrashmail.com
neverbox.com
nospammail.net
notmailinator.com
nowmymail.com
objectmail.com
onewaymail.com
pookmail.com
proxymail.eu
quickinbox.com
rcpt.at
recode.me
rejectmail.com
safetymail.info
sharklasers.com
shieldedmail.com
sneakemail.com
sogetthis.com
spam4.me
spamavert.com
spambox.us
spamfree24.org
spamgourmet.com
spamhole.com
spaml.com
spamspot.com
tempail.com
temp-mail.io
temp-mail.org
tempemail.net
tempinbox.com
tempmail2.com
tempmailaddress.com
tempmaildemo.com
tempomail.fr
temporaryinbox.com
throwawayemailaddress.com
throwawaymail.com
tilien.com
trash-mail.at
trash-mail.com
trash-mail.de
trashdevil.com
trashmail.at
trashmail.com
trashmail.de
trashmail.me
trashmail.net
trashmail.org
trashymail.com
tyldd.com
wegwerfemail.de
wegwerfmail.net
wegwerfmail.org
wh4f.org
whyspam.me
willselfdestruct.com
yopmail.com
yopmail.fr
yopmail.net
zippymail.info
zoemail.org
`
