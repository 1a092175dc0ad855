package extractor

// In-page evaluations. Each is a function expression returning a string
// (JSON for all but markupJS). The leading "// extract:<name>" line is
// kept so evaluations are identifiable in CDP traces.

const markupJS = `() => {
	// extract:markup
	const dt = document.doctype ? new XMLSerializer().serializeToString(document.doctype) + "\n" : "";
	return dt + document.documentElement.outerHTML;
}`

const metaJS = `() => {
	// extract:meta
	const meta = {};
	document.querySelectorAll("meta").forEach((m) => {
		let k = m.getAttribute("name") || m.getAttribute("property") || m.getAttribute("http-equiv") || "";
		let v = m.getAttribute("content") || "";
		if (!k && m.getAttribute("charset")) { k = "charset"; v = m.getAttribute("charset"); }
		if (k) meta[k] = v;
	});
	const links = Array.from(document.querySelectorAll("link[rel]")).map((l) => ({
		rel: (l.getAttribute("rel") || "").toLowerCase(),
		href: l.href || "",
		as: l.getAttribute("as") || "",
		type: l.getAttribute("type") || "",
	}));
	return JSON.stringify({
		title: document.title || "",
		url: location.href,
		lang: document.documentElement.getAttribute("lang") || "",
		charset: document.characterSet || "",
		meta: meta,
		links: links,
	});
}`

const stylesJS = `() => {
	// extract:styles
	const max = __MAX_SAMPLES__;
	const keys = ["colors", "fontFamilies", "fontSizes", "fontWeights", "lineHeights", "letterSpacings",
		"spacing", "radii", "shadows", "transitions", "transforms", "zIndices"];
	const acc = {};
	keys.forEach((k) => { acc[k] = new Set(); });
	const add = (k, v) => { if (v) acc[k].add(v); };
	const skip = { SCRIPT: 1, STYLE: 1, META: 1, LINK: 1, HEAD: 1, TITLE: 1, NOSCRIPT: 1, TEMPLATE: 1, BASE: 1 };
	const samples = [];
	const els = document.querySelectorAll("*");
	for (const el of els) {
		let cs;
		try { cs = getComputedStyle(el); } catch (e) { continue; }
		if (!cs) continue;
		add("colors", cs.color);
		add("colors", cs.backgroundColor);
		if (cs.borderTopStyle !== "none" && cs.borderTopWidth !== "0px") add("colors", cs.borderTopColor);
		add("fontFamilies", cs.fontFamily);
		add("fontSizes", cs.fontSize);
		add("fontWeights", cs.fontWeight);
		add("lineHeights", cs.lineHeight);
		add("letterSpacings", cs.letterSpacing);
		add("spacing", cs.padding);
		add("spacing", cs.margin);
		if (cs.gap && cs.gap !== "normal") add("spacing", cs.gap);
		add("radii", cs.borderRadius);
		add("shadows", cs.boxShadow);
		add("transitions", cs.transition);
		add("transforms", cs.transform);
		add("zIndices", cs.zIndex);
		if (samples.length < max && !skip[el.tagName]) {
			let r = { x: 0, y: 0, width: 0, height: 0 };
			try { r = el.getBoundingClientRect(); } catch (e) {}
			samples.push({
				tag: el.tagName.toLowerCase(),
				id: el.id || "",
				classes: (el.getAttribute("class") || "").trim().split(/\s+/).filter(Boolean),
				rect: { x: r.x, y: r.y, width: r.width, height: r.height },
				styles: {
					display: cs.display, position: cs.position,
					width: cs.width, height: cs.height,
					color: cs.color, backgroundColor: cs.backgroundColor, backgroundImage: cs.backgroundImage,
					borderColor: cs.borderTopColor, borderWidth: cs.borderTopWidth,
					fontFamily: cs.fontFamily, fontSize: cs.fontSize, fontWeight: cs.fontWeight,
					lineHeight: cs.lineHeight, letterSpacing: cs.letterSpacing, textAlign: cs.textAlign,
					padding: cs.padding, margin: cs.margin, gap: cs.gap,
					flexDirection: cs.flexDirection, justifyContent: cs.justifyContent, alignItems: cs.alignItems,
					gridTemplateColumns: cs.gridTemplateColumns,
					borderRadius: cs.borderRadius, boxShadow: cs.boxShadow,
					transform: cs.transform, transition: cs.transition, zIndex: cs.zIndex, opacity: cs.opacity,
				},
			});
		}
	}
	const tokens = {};
	keys.forEach((k) => { tokens[k] = Array.from(acc[k]); });
	return JSON.stringify({ tokens: tokens, samples: samples, elementCount: els.length });
}`

const stylesheetsJS = `() => {
	// extract:stylesheets
	const out = { keyframes: [], media: [], fontFaces: [], inaccessible: [], sheetCount: 0, ruleCount: 0 };
	const walk = (rules, href) => {
		for (const rule of Array.from(rules)) {
			try {
				out.ruleCount++;
				if (rule.type === CSSRule.KEYFRAMES_RULE) {
					out.keyframes.push({
						name: rule.name,
						frames: Array.from(rule.cssRules).map((k) => ({ offset: k.keyText, style: k.style.cssText })),
						css_text: rule.cssText.length <= 4000 ? rule.cssText : "",
						sheet: href,
					});
				} else if (rule.type === CSSRule.MEDIA_RULE) {
					out.media.push({
						condition: rule.conditionText || (rule.media && rule.media.mediaText) || "",
						rules: Array.from(rule.cssRules).map((r) => r.cssText),
						sheet: href,
					});
					walk(rule.cssRules, href);
				} else if (rule.type === CSSRule.FONT_FACE_RULE) {
					const s = rule.style;
					out.fontFaces.push({
						family: s.getPropertyValue("font-family").trim(),
						src: s.getPropertyValue("src").trim(),
						weight: s.getPropertyValue("font-weight").trim(),
						style: s.getPropertyValue("font-style").trim(),
						display: s.getPropertyValue("font-display").trim(),
					});
				} else if (rule.cssRules) {
					walk(rule.cssRules, href);
				}
			} catch (e) {}
		}
	};
	for (const sheet of Array.from(document.styleSheets)) {
		out.sheetCount++;
		const href = sheet.href || "inline";
		let rules = null;
		try { rules = sheet.cssRules; } catch (e) { rules = null; }
		if (!rules) { out.inaccessible.push(href); continue; }
		walk(rules, href);
	}
	return JSON.stringify(out);
}`

const variablesJS = `() => {
	// extract:variables
	const vars = {};
	const collect = (rules) => {
		for (const rule of Array.from(rules)) {
			try {
				if (rule.style && (rule.selectorText === ":root" || rule.selectorText === "html")) {
					for (let i = 0; i < rule.style.length; i++) {
						const p = rule.style[i];
						if (p.startsWith("--")) vars[p] = rule.style.getPropertyValue(p).trim();
					}
				}
				if (rule.cssRules) collect(rule.cssRules);
			} catch (e) {}
		}
	};
	for (const sheet of Array.from(document.styleSheets)) {
		let rules = null;
		try { rules = sheet.cssRules; } catch (e) { rules = null; }
		if (rules) collect(rules);
	}
	const root = getComputedStyle(document.documentElement);
	for (let i = 0; i < root.length; i++) {
		const p = root[i];
		if (p.startsWith("--")) vars[p] = root.getPropertyValue(p).trim();
	}
	for (const k of Object.keys(vars)) {
		const v = root.getPropertyValue(k).trim();
		if (v) vars[k] = v;
	}
	return JSON.stringify(vars);
}`

const videosJS = `() => {
	// extract:videos
	const videos = Array.from(document.querySelectorAll("video")).map((v, i) => {
		try {
			const r = v.getBoundingClientRect();
			return {
				index: i,
				src: v.src || v.getAttribute("src") || "",
				currentSrc: v.currentSrc || "",
				poster: v.poster || "",
				autoplay: !!v.autoplay, loop: !!v.loop, muted: !!v.muted,
				controls: !!v.controls, playsInline: !!v.playsInline,
				width: v.videoWidth || 0, height: v.videoHeight || 0,
				renderedWidth: r.width, renderedHeight: r.height,
				duration: isFinite(v.duration) ? v.duration : 0,
				sources: Array.from(v.querySelectorAll("source")).map((s) => ({
					src: s.src || s.getAttribute("src") || "",
					type: s.getAttribute("type") || "",
					media: s.getAttribute("media") || "",
				})),
			};
		} catch (e) {
			return { index: i, error: String(e) };
		}
	});
	const dataVideos = [];
	for (const el of document.querySelectorAll("[data-video-src], [data-src]")) {
		if (el.tagName === "VIDEO") continue;
		let src = el.getAttribute("data-video-src") || el.getAttribute("data-src") || "";
		try { src = new URL(src, document.baseURI).href; } catch (e) {}
		if (src) dataVideos.push({ tag: el.tagName.toLowerCase(), src: src });
	}
	return JSON.stringify({
		videos: videos,
		dataVideos: dataVideos,
		objectURLs: Array.isArray(window.__pagesnapObjectURLs) ? window.__pagesnapObjectURLs : [],
	});
}`

const animatedJS = `() => {
	// extract:animated
	const max = __MAX_ANIMATED__;
	const sel = (el) => {
		let s = el.tagName.toLowerCase();
		if (el.id) return s + "#" + el.id;
		const c = (el.getAttribute("class") || "").trim().split(/\s+/).filter(Boolean).slice(0, 3);
		if (c.length) s += "." + c.join(".");
		return s;
	};
	const out = [];
	for (const el of document.querySelectorAll("*")) {
		if (out.length >= max) break;
		try {
			const cs = getComputedStyle(el);
			const anim = cs.animationName && cs.animationName !== "none";
			const trans = (cs.transitionDuration || "0s").split(",").some((d) => parseFloat(d) > 0);
			if (!anim && !trans) continue;
			out.push({ selector: sel(el), animation: anim ? cs.animation : "", transition: trans ? cs.transition : "" });
		} catch (e) {}
	}
	return JSON.stringify(out);
}`

const scriptsJS = `() => {
	// extract:scripts
	return JSON.stringify(Array.from(document.scripts).map((s) => ({
		src: s.src || "",
		type: s.getAttribute("type") || "",
		async: !!s.async,
		defer: !!s.defer,
		content: s.src ? "" : (s.textContent || ""),
	})));
}`

const backgroundsJS = `() => {
	// extract:backgrounds
	const urls = new Set();
	const re = /url\(\s*["']?([^"')]+)["']?\s*\)/g;
	for (const el of document.querySelectorAll("*")) {
		let bg = "";
		try { bg = getComputedStyle(el).backgroundImage; } catch (e) { continue; }
		if (!bg || bg === "none") continue;
		let m;
		re.lastIndex = 0;
		while ((m = re.exec(bg)) !== null) {
			try { urls.add(new URL(m[1], location.href).href); } catch (e) {}
		}
	}
	return JSON.stringify(Array.from(urls));
}`
