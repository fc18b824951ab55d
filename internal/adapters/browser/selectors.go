package browser

const loginURL = "https://dashboard.stripe.com/login"

// Candidate selectors per navigation step, ordered most-recent dashboard
// variant first. The vendor UI drifts between dashboard versions, so
// every step tries each candidate in turn.
var (
	emailFieldSelectors    = []string{`input[name="email"]`, `input[type="email"]`, `#email`}
	passwordFieldSelectors = []string{`input[name="password"]`, `input[type="password"]`, `#password`}
	submitButtonSelectors  = []string{`button[type="submit"]`, `input[type="submit"]`}

	dashboardSelectors = []string{
		`[data-testid="nav-sidebar"]`,
		`[data-testid="main-header"]`,
		`.Dashboard`,
		`.dashboard`,
		`.db-NavHeader`,
		`.nav-header`,
	}

	invoicesNavSelectors = []string{
		`[data-testid="nav-link-invoices"]`,
		`a[href*="/invoices"]`,
	}

	invoiceListSelectors = []string{
		`[data-testid="invoice-list"]`,
		`.InvoicesList`,
		`.db-InvoiceList`,
	}

	dateRangeSelectors = []string{
		`button[data-testid="date-range-trigger"]`,
		`button[aria-label="Date range"]`,
	}

	allTimeOptionSelectors = []string{
		`[data-testid="date-range-all-time"]`,
		`button[value="all_time"]`,
	}

	exportButtonSelectors = []string{
		`[data-testid="export-button"]`,
		`button[data-test="export"]`,
		`button[aria-label="Export"]`,
	}
)

// loginErrorProbe returns the visible login failure text, or "".
const loginErrorProbe = `(() => {
	const needles = ["Invalid email or password", "Authentication failed"];
	const text = document.body ? document.body.innerText : "";
	for (const needle of needles) {
		if (text.includes(needle)) return needle;
	}
	return "";
})()`

// captchaProbe returns the reCAPTCHA site key when a challenge iframe is
// present, or "".
const captchaProbe = `(() => {
	const iframe = document.querySelector('iframe[src*="recaptcha"], iframe[title*="recaptcha"], iframe[title*="reCAPTCHA"]');
	if (!iframe) return "";
	const src = iframe.getAttribute("src") || "";
	const match = src.match(/[?&]k=([^&]+)/);
	return match ? match[1] : "";
})()`

// captchaInject places a solved token where the challenge script expects
// it. The %q verb receives the solver's response token.
const captchaInject = `(() => {
	const field = document.getElementById("g-recaptcha-response");
	if (!field) return "missing";
	field.innerHTML = %q;
	return "ok";
})()`
