package browser

// stealthScript suppresses standard automation fingerprints. It is
// injected once per browser context, before any navigation, via
// Page.addScriptToEvaluateOnNewDocument.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });

window.chrome = {
	runtime: {},
	loadTimes: function() {},
	csi: function() {},
	app: {}
};

const originalQuery = window.navigator.permissions.query;
window.navigator.permissions.query = (parameters) => (
	parameters.name === 'notifications' ?
		Promise.resolve({ state: Notification.permission }) :
		originalQuery(parameters)
);

Object.defineProperty(navigator, 'plugins', {
	get: () => [{
		0: {
			type: 'application/x-google-chrome-pdf',
			suffixes: 'pdf',
			description: 'Portable Document Format',
			enabledPlugin: true
		},
		description: 'Chrome PDF Plugin',
		filename: 'internal-pdf-viewer',
		length: 1,
		name: 'Chrome PDF Plugin'
	}]
});
`
