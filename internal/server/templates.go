package server

// bootstrapJS runs in browsers viewing a server-rendered page. It swaps the
// content region on hash changes through /api/render, intercepts site links,
// wires copy buttons and heading anchors, and reloads on live reload events.
const bootstrapJS = `(function () {
  "use strict";

  var content = document.getElementById("content");
  var seq = 0;

  function parse(path) {
    var rest = path;
    if (rest.indexOf("/#/") === 0) rest = rest.slice(3);
    else if (rest.indexOf("#/") === 0) rest = rest.slice(2);
    else if (rest === "" || rest === "/" || rest === "#") rest = "";
    else if (rest.charAt(0) === "/") rest = rest.slice(1);
    var i = rest.indexOf("#");
    var page = i < 0 ? rest : rest.slice(0, i);
    var hash = i < 0 ? "" : rest.slice(i + 1);
    return { page: page || "home", hash: hash };
  }

  function canonical(route) {
    return "#/" + route.page + (route.hash ? "#" + route.hash : "");
  }

  function bind() {
    content.querySelectorAll("button.copy-button").forEach(function (btn) {
      btn.addEventListener("click", function () {
        var code = JSON.parse(btn.getAttribute("data-code") || '""');
        if (navigator.clipboard) navigator.clipboard.writeText(code);
      });
    });
    content.querySelectorAll("[data-anchor]").forEach(function (h) {
      h.addEventListener("click", function () {
        navigate("#/" + document.body.getAttribute("data-page") + "#" + h.getAttribute("data-anchor"));
      });
    });
  }

  function navigate(path) {
    var route = parse(path);
    var token = ++seq;
    content.innerHTML = '<div class="loading">Loading...</div>';
    fetch("/api/render/" + route.page.split("/").map(encodeURIComponent).join("/"))
      .then(function (resp) { return resp.json(); })
      .then(function (body) {
        if (token !== seq) return;
        content.innerHTML = body.html;
        if (body.error) return;
        document.body.setAttribute("data-page", route.page);
        bind();
        if (location.hash !== canonical(route)) history.pushState(null, "", canonical(route));
        if (route.hash) {
          setTimeout(function () {
            if (token !== seq) return;
            var el = document.getElementById(route.hash);
            if (el) el.scrollIntoView({ behavior: "smooth" });
          }, 300);
        } else {
          window.scrollTo(0, 0);
        }
      })
      .catch(function () {
        if (token !== seq) return;
        var div = document.createElement("div");
        div.className = "error";
        div.textContent = "error 404: " + route.page;
        content.replaceChildren(div);
      });
  }

  window.addEventListener("popstate", function () { navigate(location.hash || "/"); });

  document.addEventListener("click", function (e) {
    var a = e.target.closest ? e.target.closest("a") : null;
    if (!a) return;
    var href = a.getAttribute("href");
    if (href && (href.indexOf("/#/") === 0 || href.indexOf("#/") === 0)) {
      e.preventDefault();
      navigate(href);
    } else if (a.href && a.href.indexOf(location.origin) === 0 && a.pathname.indexOf("/page/") === 0) {
      e.preventDefault();
      navigate(a.pathname.slice("/page".length) + a.hash);
    }
  });

  bind();
  if (location.hash && location.hash !== "#/") navigate(location.hash);

  var script = document.currentScript;
  if (script && script.getAttribute("data-live-reload") === "true") {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/livereload");
    ws.onmessage = function (e) { if (e.data === "reload") location.reload(); };
  }
})();
`
